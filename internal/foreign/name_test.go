package foreign

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseName(t *testing.T) {
	tests := []struct {
		in      string
		module  string
		symbol  string
		invalid bool
	}{
		{in: "pkg.Type", module: "pkg", symbol: "Type"},
		{in: "pkg.sub.Type", module: "pkg.sub", symbol: "Type"},
		{in: "a.b.c.d", module: "a.b.c", symbol: "d"},
		{in: "moduleonly", invalid: true},
		{in: "", invalid: true},
		{in: ".Type", invalid: true},
		{in: "pkg.", invalid: true},
		{in: "pkg..Type", invalid: true},
		{in: "pkg. .Type", invalid: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			qn, err := ParseName(tt.in)
			if tt.invalid {
				var nameErr *InvalidNameError
				require.True(t, errors.As(err, &nameErr), "got %v", err)
				assert.Equal(t, tt.in, nameErr.Name)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.module, qn.Module)
			assert.Equal(t, tt.symbol, qn.Symbol)
			assert.Equal(t, tt.in, qn.String())
		})
	}
}

func TestModuleFile(t *testing.T) {
	assert.Equal(t, "pkg/sub.lua", moduleFile("pkg.sub"))
	assert.Equal(t, "pkg.lua", moduleFile("pkg"))
}
