package output

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatStatus_KnownStates(t *testing.T) {
	assert.Equal(t, "✅ SUCCESS", FormatStatus("SUCCESS"))
	assert.Equal(t, "❌ FAILURE", FormatStatus("FAILURE"))
	assert.Equal(t, "🔄 RUNNING_EXECUTION", FormatStatus("RUNNING_EXECUTION"))
	assert.Equal(t, "⏸️  PAUSE", FormatStatus("PAUSE"))
	assert.Equal(t, "🛑 STOP", FormatStatus("STOP"))
}

func TestFormatStatus_UnknownPassesThrough(t *testing.T) {
	assert.Equal(t, "SOMETHING_ELSE", FormatStatus("SOMETHING_ELSE"))
}

func TestTable_RendersWithoutPanicking(t *testing.T) {
	table := NewTable([]string{"ID", "STATUS"})
	table.AddRow([]string{"1", "RUNNING_EXECUTION"})
	table.AddRow([]string{"2", "SUCCESS"})

	assert.NotPanics(t, func() {
		table.Render()
	})
}
