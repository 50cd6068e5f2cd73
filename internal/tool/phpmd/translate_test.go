package phpmd

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phpmdlens/internal/config"
	"phpmdlens/internal/types"
)

func configWithMin(min types.Severity) *config.ToolConfig {
	cfg := config.NewConfig()
	cfg.MinSeverity = min
	return cfg
}

func TestSeverityForPriority(t *testing.T) {
	tests := []struct {
		priority int
		want     types.Severity
	}{
		{1, types.SeverityError},
		{2, types.SeverityWarning},
		{3, types.SeverityWarning},
		{4, types.SeverityInformation},
		{5, types.SeverityInformation},
		{0, types.SeverityWarning},
		{6, types.SeverityWarning},
		{-1, types.SeverityWarning},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, SeverityForPriority(tt.priority), "priority %d", tt.priority)
	}

	// Monotonic: a higher priority number is never more severe.
	for p := 1; p < 5; p++ {
		assert.LessOrEqual(t, SeverityForPriority(p), SeverityForPriority(p+1))
	}
}

func TestShouldReport(t *testing.T) {
	all := []types.Severity{types.SeverityError, types.SeverityWarning, types.SeverityInformation}
	accepted := map[types.Severity][]types.Severity{
		types.SeverityError:       {types.SeverityError},
		types.SeverityWarning:     {types.SeverityError, types.SeverityWarning},
		types.SeverityInformation: all,
	}

	for min, want := range accepted {
		for _, sev := range all {
			expected := false
			for _, w := range want {
				if w == sev {
					expected = true
				}
			}
			assert.Equal(t, expected, ShouldReport(min, sev), "min=%s sev=%s", min, sev)
		}
	}
}

func TestTranslateSampleReport(t *testing.T) {
	diags, err := Translate(sampleReport, configWithMin(types.SeverityInformation))
	require.NoError(t, err)
	require.Len(t, diags, 2)

	first := diags[0]
	assert.Equal(t, 9, first.Range.Start.Line)
	assert.Equal(t, 0, first.Range.Start.Character)
	assert.Equal(t, 9, first.Range.End.Line)
	assert.Equal(t, types.LineEnd, first.Range.End.Character)
	assert.Equal(t, types.SeverityWarning, first.Severity)
	assert.Equal(t, "ExcessiveParameterList", first.Code.Value)
	assert.Equal(t, "https://phpmd.org/rules/codesize.html#excessiveparameterlist", first.Code.Target)
	assert.Equal(t, Source, first.Source)
	assert.Equal(t, "Code Size Rules", first.RuleSet)
	assert.True(t, strings.HasPrefix(first.Message, "The method addItem has 11 parameters"))

	second := diags[1]
	assert.Equal(t, 19, second.Range.Start.Line)
	assert.Equal(t, types.SeverityError, second.Severity)
	assert.Equal(t, "ShortVariable", second.Code.Value)
	assert.Empty(t, second.Code.Target)
}

func TestTranslateMinSeverityError(t *testing.T) {
	diags, err := Translate(sampleReport, configWithMin(types.SeverityError))
	require.NoError(t, err)
	require.Len(t, diags, 1)
	assert.Equal(t, "ShortVariable", diags[0].Code.Value)
}

func TestTranslateKeepsOrderAcrossFiles(t *testing.T) {
	raw := `{"files":[
	  {"file":"a.php","violations":[{"beginLine":5,"rule":"A","priority":2},{"beginLine":1,"rule":"B","priority":2}]},
	  {"file":"b.php","violations":[{"beginLine":3,"rule":"C","priority":9}]}
	]}`

	diags, err := Translate(raw, configWithMin(types.SeverityWarning))
	require.NoError(t, err)

	var codes []string
	for _, d := range diags {
		codes = append(codes, d.Code.Value)
	}
	assert.Equal(t, []string{"A", "B", "C"}, codes)
	assert.Equal(t, types.SeverityWarning, diags[2].Severity, "out of range priority falls back to warning")
}

func TestTranslateEmptyFiles(t *testing.T) {
	diags, err := Translate(`{"version":"2.15.0","files":[]}`, config.NewConfig())
	require.NoError(t, err)
	assert.Empty(t, diags)
}

func TestTranslateClampsLineZero(t *testing.T) {
	diags, err := Translate(`{"files":[{"file":"a.php","violations":[{"beginLine":0,"rule":"X","priority":1}]}]}`, config.NewConfig())
	require.NoError(t, err)
	require.Len(t, diags, 1)
	assert.Equal(t, 0, diags[0].Range.Start.Line)
}

func TestTranslateParseError(t *testing.T) {
	raw := "PHP Fatal error: Uncaught Exception in /var/www/html/vendor/phpmd\n\nStack trace:\n#0 {main}"

	_, err := Translate(raw, config.NewConfig())
	require.Error(t, err)

	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "PHP Fatal error: Uncaught Exception in /var/www/html/vendor/phpmd", pe.Excerpt)
	assert.NotContains(t, pe.Error(), "Stack trace")
}

func TestTranslateParseErrorLongOutput(t *testing.T) {
	_, err := Translate(strings.Repeat("<html>", 100), config.NewConfig())

	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.True(t, strings.HasSuffix(pe.Excerpt, "..."))
	assert.Len(t, pe.Excerpt, 203)
}

func TestTranslateEmptyOutputIsParseError(t *testing.T) {
	_, err := Translate("", config.NewConfig())

	var pe *ParseError
	assert.True(t, errors.As(err, &pe))
}

func TestIsParseError(t *testing.T) {
	_, err := Translate("PHP Fatal error: Uncaught Error", config.NewConfig())
	assert.True(t, IsParseError(fmt.Errorf("run: %w", err)))
	assert.False(t, IsParseError(errors.New("other")))
	assert.False(t, IsParseError(nil))
}
