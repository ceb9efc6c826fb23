package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestProgressBar(t *testing.T) {
	assert.Equal(t, "█████░░░░░  50%", ProgressBar(1, 2, 10))
	assert.Equal(t, "░░░░░   0%", ProgressBar(0, 0, 1))
	assert.True(t, strings.HasPrefix(ProgressBar(9, 3, 5), "█████ "), "overflow is clamped")
}

func TestPanelWrapsEveryLine(t *testing.T) {
	out := Panel(Dark(), []string{"one", "two"})
	lines := strings.Split(out, "\n")
	assert.Len(t, lines, 4)
	assert.Equal(t, 4, lipgloss.Height(out))
	assert.Contains(t, out, "one")
}

func TestNamedTheme(t *testing.T) {
	assert.Equal(t, ThemeLight, Named(" LIGHT ").Name)
	assert.Equal(t, ThemeDark, Named("").Name)
	assert.Equal(t, ThemeDark, Named("solarized").Name)
	assert.Equal(t, ThemeDark, Light().Toggled().Name)
	assert.Equal(t, ThemeLight, Dark().Toggled().Name)
}

func TestOKAndFail(t *testing.T) {
	var buf bytes.Buffer
	OK(&buf, Dark(), "saved")
	Fail(&buf, Dark(), "nope")
	assert.Contains(t, buf.String(), "saved")
	assert.Contains(t, buf.String(), "nope")
}
