package prompts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_AllTemplatesParse(t *testing.T) {
	names := Names()
	assert.ElementsMatch(t, []string{
		"analyze", "design", "generate", "integrate", "test", "migrate", "howto", "supervisor",
	}, names)

	for _, name := range names {
		_, err := Load(name)
		require.NoError(t, err, name)
	}
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load("nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "prompts: nope")
}

func TestSupervisorTemplate(t *testing.T) {
	type stage struct{ ID, Title string }
	var b strings.Builder
	err := MustLoad("supervisor").Execute(&b, map[string]any{
		"Context": "ctx",
		"Request": "split orders",
		"Stages":  []stage{{"analyze", "Analyzer"}, {"design", "Designer"}},
	})
	require.NoError(t, err)

	out := b.String()
	assert.Contains(t, out, "'split orders'")
	assert.Contains(t, out, "Analyzer (analyze), Designer (design).")
	assert.Contains(t, out, "{\n  \"analyze\": \"description for Analyzer\",\n  \"design\": \"description for Designer\"\n}")
}
