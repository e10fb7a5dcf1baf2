package orchestrator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultStages_Order(t *testing.T) {
	cat := DefaultStages()
	assert.Equal(t, []StageID{
		StageAnalyze, StageDesign, StageGenerate, StageIntegrate, StageTest, StageMigrate, StageHowTo,
	}, cat.IDs())
	assert.False(t, cat.Has(StageSupervisor))

	howto, ok := cat.Lookup(StageHowTo)
	require.True(t, ok)
	assert.Equal(t, cat.IDs()[:6], howto.DependsOn)

	for _, d := range cat {
		assert.NotEmpty(t, d.Title, d.ID)
		assert.NotEmpty(t, d.Query, d.ID)
		assert.NotNil(t, d.Template, d.ID)
		assert.NotEmpty(t, d.Files, d.ID)
		for _, dep := range d.DependsOn {
			assert.True(t, cat.Has(dep), "%s depends on undeclared %s", d.ID, dep)
		}
	}
}

func TestDefaultStages_IsACopy(t *testing.T) {
	a := DefaultStages()
	a[0].Title = "changed"
	assert.Equal(t, "Analyzer", DefaultStages()[0].Title)
}

func TestCatalog_From(t *testing.T) {
	cat := DefaultStages()
	assert.Equal(t, []StageID{StageMigrate, StageHowTo}, cat.From(StageMigrate))
	assert.Equal(t, cat.IDs(), cat.From(StageAnalyze))
	assert.Nil(t, cat.From("nope"))
}

func TestCatalog_Next(t *testing.T) {
	cat := DefaultStages()
	assert.Equal(t, StageAnalyze, cat.Next(nil))
	assert.Equal(t, StageGenerate, cat.Next(map[StageID]string{StageAnalyze: "a", StageDesign: "d"}))

	all := map[StageID]string{}
	for _, id := range cat.IDs() {
		all[id] = "x"
	}
	assert.Equal(t, StageTerminal, cat.Next(all))
}

func TestDefinition_ExpectedFiles(t *testing.T) {
	gen, ok := DefaultStages().Lookup(StageGenerate)
	require.True(t, ok)

	files := gen.ExpectedFiles(Params{ServiceName: "orders", BasePackage: "com.example"})
	assert.Contains(t, files, "src/main/java/com/example/orders/controller/OrdersController.java")
	assert.Contains(t, files, "pom.xml")
}

func TestDefaultTemplates_Render(t *testing.T) {
	cat := DefaultStages()
	state := NewState(cat.IDs(), map[StageID]string{
		StageAnalyze: "XML Content:\n<flow/>",
	}, Params{ServiceName: "orders"})
	for _, id := range cat.IDs() {
		state.Outputs[id] = "output of " + id.String()
	}

	for _, d := range cat {
		t.Run(d.ID.String(), func(t *testing.T) {
			prompt, err := d.Compose(state, "CTX")
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(prompt, "Using the following webMethods documentation context:\nCTX\n"))
			for _, dep := range d.DependsOn {
				assert.Contains(t, prompt, "--- "+dep.String()+" output ---\noutput of "+dep.String())
			}
		})
	}

	analyze, _ := cat.Lookup(StageAnalyze)
	prompt, err := analyze.Compose(state, "CTX")
	require.NoError(t, err)
	assert.Contains(t, prompt, "Analyze webMethods flow files: XML Content:\n<flow/>.")

	gen, _ := cat.Lookup(StageGenerate)
	prompt, err = gen.Compose(state, "CTX")
	require.NoError(t, err)
	assert.Contains(t, prompt, "src/main/java/com/example/orders/controller/OrdersController.java")
	assert.Contains(t, prompt, "package com.example.orders")
}
