package scenario

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestLoadDefinitionFromScript(t *testing.T) {
	src := `
scenario.name("usd-parallel-up");
scenario.shiftCurve("Discounting", "USD", "Absolute", 0.005);
scenario.shiftCurve("Forward3M", "USD", "Relative", 0.10);
`
	def, err := LoadDefinitionFromScript("fixture", src)
	require.NoError(t, err)
	require.Equal(t, "usd-parallel-up", def.Name())
	require.Equal(t, 2, def.Size())

	params, ok := def.ParametersFor(curveSpec("USD", "Discounting"), "Default")
	require.True(t, ok)
	require.Equal(t, ShiftAbsolute, params[ParamShiftType])
	amount, isDecimal := params[ParamAmount].(decimal.Decimal)
	require.True(t, isDecimal)
	require.True(t, amount.Equal(decimal.NewFromFloat(0.005)))
}

func TestLoadDefinitionFromScriptRejectsUnknownShiftType(t *testing.T) {
	_, err := LoadDefinitionFromScript("fixture", `scenario.shiftCurve("Discounting", "USD", "Sideways", 1);`)
	require.Error(t, err)
}

func TestLoadDefinitionFromScriptRejectsEmptyScenario(t *testing.T) {
	_, err := LoadDefinitionFromScript("fixture", `var unused = 1;`)
	require.Error(t, err)
}

func TestLoadDefinitionFromScriptCompileError(t *testing.T) {
	_, err := LoadDefinitionFromScript("fixture", `scenario.shiftCurve(`)
	require.Error(t, err)
}
