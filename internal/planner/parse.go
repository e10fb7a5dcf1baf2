package planner

import (
	"strings"

	"github.com/tidwall/gjson"

	"github.com/dusk-indust/transmute/internal/orchestrator"
)

// ParsePlan extracts a stage plan from a model response.
//
// The whole response is first parsed as a JSON object (parsed). Failing
// that, the text between the first '{' and the last '}' is parsed
// (salvaged). Otherwise, or when the object is empty, the result is an
// empty plan with status failed. String values are kept as-is; any other
// value is kept as its raw JSON text.
func ParsePlan(raw string) (orchestrator.Plan, orchestrator.PlanStatus) {
	if plan, ok := parseObject(raw); ok {
		return plan, orchestrator.PlanParsed
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		if plan, ok := parseObject(raw[start : end+1]); ok {
			return plan, orchestrator.PlanSalvaged
		}
	}

	return orchestrator.Plan{}, orchestrator.PlanFailed
}

func parseObject(s string) (orchestrator.Plan, bool) {
	s = strings.TrimSpace(s)
	if !gjson.Valid(s) {
		return nil, false
	}
	res := gjson.Parse(s)
	if !res.IsObject() {
		return nil, false
	}

	plan := orchestrator.Plan{}
	res.ForEach(func(key, value gjson.Result) bool {
		if value.Type == gjson.String {
			plan[orchestrator.StageID(key.String())] = value.String()
		} else {
			plan[orchestrator.StageID(key.String())] = value.Raw
		}
		return true
	})
	if len(plan) == 0 {
		return nil, false
	}
	return plan, true
}
