package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewState(t *testing.T) {
	s := NewState([]StageID{"s1", "s2", "s3"}, map[StageID]string{"s2": "in2", "zz": "ignored"}, Params{})

	assert.Equal(t, map[StageID]string{"s1": "", "s2": "in2", "s3": ""}, s.Inputs)
	assert.Empty(t, s.Outputs)
	assert.NotNil(t, s.Outputs)
	assert.Equal(t, PlanNotAttempted, s.PlanStatus)
	assert.Empty(t, s.Plan)
	assert.NotEmpty(t, s.RunID)
	assert.Equal(t, Params{ServiceName: "default", BasePackage: "com.example"}, s.Params)
}

func TestState_SeedAndAdvance(t *testing.T) {
	s := NewState(nil, nil, Params{})
	queue := []StageID{"a", "b"}
	s.Seed(queue)
	queue[0] = "mutated"

	assert.Equal(t, StageID("a"), s.Current)

	s.Advance("a")
	assert.Equal(t, StageID("b"), s.Current)
	assert.Equal(t, []StageID{"b"}, s.Queue)

	s.Advance("b")
	assert.Equal(t, StageTerminal, s.Current)
	assert.True(t, s.Current.IsTerminal())
	assert.Empty(t, s.Queue)

	s.Seed(nil)
	assert.Equal(t, StageTerminal, s.Current)
}

func TestState_ResultIsACopy(t *testing.T) {
	s := NewState([]StageID{"a"}, nil, Params{})
	s.Outputs["a"] = "x"
	s.Plan["a"] = "do a"
	s.PlanStatus = PlanParsed

	r := s.Result()
	s.Outputs["a"] = "changed"
	s.Plan["a"] = "changed"

	assert.Equal(t, "x", r.Outputs["a"])
	assert.Equal(t, "do a", r.Plan["a"])
	assert.Equal(t, PlanParsed, r.PlanStatus)
	assert.NotNil(t, r.Queue)
}

func TestParams(t *testing.T) {
	tests := []struct {
		name       string
		params     Params
		pkg        string
		dir        string
		class      string
		normalized Params
	}{
		{
			name:       "defaults",
			params:     Params{},
			pkg:        "com.example.default",
			dir:        "com/example/default",
			class:      "Default",
			normalized: Params{ServiceName: "default", BasePackage: "com.example"},
		},
		{
			name:       "simple",
			params:     Params{ServiceName: "orders", BasePackage: "com.example"},
			pkg:        "com.example.orders",
			dir:        "com/example/orders",
			class:      "Orders",
			normalized: Params{ServiceName: "orders", BasePackage: "com.example"},
		},
		{
			name:       "kebab case",
			params:     Params{ServiceName: "Order-Service", BasePackage: "io.acme."},
			pkg:        "io.acme.orderservice",
			dir:        "io/acme/orderservice",
			class:      "OrderService",
			normalized: Params{ServiceName: "Order-Service", BasePackage: "io.acme."},
		},
		{
			name:       "punctuation only",
			params:     Params{ServiceName: "--", BasePackage: "org.x"},
			pkg:        "org.x.default",
			dir:        "org/x/default",
			class:      "Default",
			normalized: Params{ServiceName: "--", BasePackage: "org.x"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.pkg, tt.params.Package())
			assert.Equal(t, tt.dir, tt.params.PackageDir())
			assert.Equal(t, tt.class, tt.params.ClassPrefix())
			assert.Equal(t, tt.normalized, tt.params.WithDefaults())
		})
	}
}

func TestPlanStatus_OK(t *testing.T) {
	for status, want := range map[PlanStatus]bool{
		PlanNotAttempted: false,
		PlanParsed:       true,
		PlanSalvaged:     true,
		PlanFailed:       false,
	} {
		require.Equal(t, want, status.OK(), status)
	}
}
