package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVisibleText(t *testing.T) {
	tests := []struct {
		name     string
		fragment string
		want     string
	}{
		{"plain html", `<p>Orders are <em>late</em> again</p>`, "Orders are late again"},
		{"entity escaped", `&lt;div class="md"&gt;&lt;p&gt;Stock sync failed&lt;/p&gt;&lt;/div&gt;`, "Stock sync failed"},
		{"skips scripts", `<p>Visible</p><script>var hidden = 1</script>`, "Visible"},
		{"empty", ``, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := VisibleText(tt.fragment)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
