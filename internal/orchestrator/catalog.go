package orchestrator

import (
	"slices"

	"github.com/dusk-indust/transmute/internal/prompts"
)

// Catalog is an ordered list of stage definitions. Its order is the fixed
// execution order.
type Catalog []Definition

// IDs returns the stage IDs in declared order.
func (c Catalog) IDs() []StageID {
	ids := make([]StageID, len(c))
	for i, d := range c {
		ids[i] = d.ID
	}
	return ids
}

// Has reports whether id is declared.
func (c Catalog) Has(id StageID) bool {
	_, ok := c.Lookup(id)
	return ok
}

// Lookup returns the definition for id.
func (c Catalog) Lookup(id StageID) (Definition, bool) {
	for _, d := range c {
		if d.ID == id {
			return d, true
		}
	}
	return Definition{}, false
}

// From returns the declared IDs starting at id, or nil when id is unknown.
func (c Catalog) From(id StageID) []StageID {
	ids := c.IDs()
	i := slices.Index(ids, id)
	if i < 0 {
		return nil
	}
	return ids[i:]
}

// Next returns the first declared stage without an entry in outputs, or
// StageTerminal when every stage has one.
func (c Catalog) Next(outputs map[StageID]string) StageID {
	for _, d := range c {
		if _, done := outputs[d.ID]; !done {
			return d.ID
		}
	}
	return StageTerminal
}

var defaultStages = Catalog{
	{
		ID:       StageAnalyze,
		Title:    "Analyzer",
		Query:    "webMethods integration services analysis",
		Template: prompts.MustLoad("analyze"),
		Files:    []string{"microservices_suggestion.md"},
	},
	{
		ID:        StageDesign,
		Title:     "Designer",
		Query:     "Spring Boot microservices design",
		Template:  prompts.MustLoad("design"),
		DependsOn: []StageID{StageAnalyze},
		Files:     []string{"architecture.md"},
	},
	{
		ID:        StageGenerate,
		Title:     "Generator",
		Query:     "Spring Boot code generation",
		Template:  prompts.MustLoad("generate"),
		DependsOn: []StageID{StageDesign},
		Files: []string{
			"pom.xml",
			"src/main/java/{package_dir}/controller/{class}Controller.java",
			"src/main/java/{package_dir}/service/{class}Service.java",
			"src/main/java/{package_dir}/entity/{class}Entity.java",
			"src/main/resources/application.yml",
		},
	},
	{
		ID:        StageIntegrate,
		Title:     "Boomi Integrator",
		Query:     "Boomi APIM integration",
		Template:  prompts.MustLoad("integrate"),
		DependsOn: []StageID{StageGenerate},
		Files:     []string{"openapi.yaml", "README.md"},
	},
	{
		ID:        StageTest,
		Title:     "Tester",
		Query:     "JUnit testing for Spring Boot",
		Template:  prompts.MustLoad("test"),
		DependsOn: []StageID{StageGenerate},
		Files: []string{
			"pom.xml",
			"src/test/java/{package_dir}/controller/{class}ControllerTest.java",
			"src/test/java/{package_dir}/service/{class}ServiceTest.java",
		},
	},
	{
		ID:        StageMigrate,
		Title:     "Migrator",
		Query:     "webMethods to Spring Boot migration",
		Template:  prompts.MustLoad("migrate"),
		DependsOn: []StageID{StageGenerate},
		Files: []string{
			"migration.md",
			"src/main/java/{package_dir}/migration/{class}Migration.java",
		},
	},
	{
		ID:       StageHowTo,
		Title:    "HowTo Writer",
		Query:    "webMethods to microservices transformation guide",
		Template: prompts.MustLoad("howto"),
		DependsOn: []StageID{
			StageAnalyze, StageDesign, StageGenerate, StageIntegrate, StageTest, StageMigrate,
		},
		Files: []string{"howto.md"},
	},
}

// DefaultStages returns the seven worker stages in execution order. The
// supervisor is not part of the catalog.
func DefaultStages() Catalog {
	return slices.Clone(defaultStages)
}
