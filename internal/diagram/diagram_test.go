package diagram

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/autodoc/internal/codeparse"
	"github.com/fyrsmithlabs/autodoc/internal/logging"
)

func testGenerator(t *testing.T) *Generator {
	t.Helper()
	return NewGenerator(logging.NewTestLogger().Logger)
}

func TestModuleDependenciesEdges(t *testing.T) {
	modules := []codeparse.Module{
		{Name: "orders", Path: "app/orders.py", Imports: []string{"billing", "json"}},
		{Name: "billing", Path: "app/billing.py", Imports: []string{"decimal"}},
		{Name: "api", Path: "api/handlers.go", Imports: []string{"github.com/acme/shop/app/orders"}},
	}

	src, err := testGenerator(t).ModuleDependencies(modules)
	require.NoError(t, err)

	assert.Contains(t, src, "graph TD\n")
	assert.Contains(t, src, "    orders --> billing")
	// dotted and slashed import paths both resolve on their last segment
	assert.Contains(t, src, "    api --> orders")
	// stdlib imports never match a module name
	assert.NotContains(t, src, "json")
}

func TestModuleDependenciesIsolatedNodes(t *testing.T) {
	modules := []codeparse.Module{
		{Name: "alpha", Path: "alpha.go"},
		{Name: "beta", Path: "beta.go", Imports: []string{"fmt"}},
	}

	src, err := testGenerator(t).ModuleDependencies(modules)
	require.NoError(t, err)

	assert.Contains(t, src, "    alpha[alpha]\n")
	assert.Contains(t, src, "    beta[beta]\n")
	assert.NotContains(t, src, "-->")
}

func TestModuleDependenciesSelfImportIgnored(t *testing.T) {
	modules := []codeparse.Module{
		{Name: "loop", Path: "loop.py", Imports: []string{"loop"}},
	}

	src, err := testGenerator(t).ModuleDependencies(modules)
	require.NoError(t, err)
	assert.NotContains(t, src, "-->")
	assert.Contains(t, src, "    loop[loop]\n")
}

func TestModuleDependenciesEmpty(t *testing.T) {
	_, err := testGenerator(t).ModuleDependencies(nil)
	assert.ErrorIs(t, err, ErrNothingToRender)
}

func TestClassDiagram(t *testing.T) {
	mod := codeparse.Module{
		Name: "orders",
		Classes: []codeparse.Symbol{
			{Name: "Order", Kind: codeparse.KindClass},
			{Name: "LineItem", Kind: codeparse.KindClass},
		},
		Functions: []codeparse.Symbol{
			{Name: "Order.total", Kind: codeparse.KindMethod},
			{Name: "Order.cancel", Kind: codeparse.KindMethod},
			{Name: "load", Kind: codeparse.KindFunction},
			{Name: "LineItem.subtotal", Kind: codeparse.KindMethod},
		},
	}

	src, err := testGenerator(t).ClassDiagram(mod)
	require.NoError(t, err)

	assert.Contains(t, src, "classDiagram\n")
	assert.Contains(t, src, "    class Order\n")
	assert.Contains(t, src, "    Order : +total()\n")
	assert.Contains(t, src, "    Order : +cancel()\n")
	assert.Contains(t, src, "    class LineItem\n")
	assert.Contains(t, src, "    LineItem : +subtotal()\n")
	// free functions are not attached to any class
	assert.NotContains(t, src, "load")
}

func TestClassDiagramNoClasses(t *testing.T) {
	_, err := testGenerator(t).ClassDiagram(codeparse.Module{Name: "util"})
	assert.ErrorIs(t, err, ErrNothingToRender)
}

func TestArchitectureGroupsByTopDir(t *testing.T) {
	modules := []codeparse.Module{
		{Name: "handlers", Path: "api/handlers.go"},
		{Name: "auth", Path: "api/middleware/auth.go"},
		{Name: "orders", Path: "core/orders.py"},
		{Name: "main", Path: "main.go"},
	}

	src, err := testGenerator(t).Architecture(modules)
	require.NoError(t, err)

	assert.Contains(t, src, "flowchart TD\n")
	assert.Contains(t, src, "    subgraph api\n")
	assert.Contains(t, src, "        api_handlers[handlers]\n")
	assert.Contains(t, src, "        api_auth[auth]\n")
	assert.Contains(t, src, "    subgraph core\n")
	assert.Contains(t, src, "        core_orders[orders]\n")
	assert.Contains(t, src, "    subgraph root\n")
	assert.Contains(t, src, "        root_main[main]\n")
}

func TestGenerateCollectsAllDiagrams(t *testing.T) {
	modules := []codeparse.Module{
		{
			Name:    "orders",
			Path:    "core/orders.py",
			Imports: []string{"billing"},
			Classes: []codeparse.Symbol{{Name: "Order", Kind: codeparse.KindClass}},
		},
		{Name: "billing", Path: "core/billing.py"},
	}

	diagrams, errs := testGenerator(t).Generate(context.Background(), modules)
	assert.Empty(t, errs)

	assert.Contains(t, diagrams, "module_dependencies")
	assert.Contains(t, diagrams, "classes_orders")
	assert.Contains(t, diagrams, "architecture")
	assert.Len(t, diagrams, 3)
}

func TestGenerateEmptyInput(t *testing.T) {
	diagrams, errs := testGenerator(t).Generate(context.Background(), nil)
	assert.Empty(t, diagrams)
	assert.Len(t, errs, 2)
}

func TestSanitizeID(t *testing.T) {
	assert.Equal(t, "my_module", sanitizeID("my-module"))
	assert.Equal(t, "a_b_c", sanitizeID("a.b/c"))
	assert.Equal(t, "unnamed", sanitizeID(""))
}
