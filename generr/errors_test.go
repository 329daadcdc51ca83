package generr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorFormatting(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "semantic without position",
			err:  NewSemanticError("setter has no value parameter"),
			want: "[SemanticError] setter has no value parameter",
		},
		{
			name: "semantic with file",
			err:  NewSemanticErrorInFile("turret.go", 12, 2, "bad indexer"),
			want: "[SemanticError] turret.go:12:2 bad indexer",
		},
		{
			name: "emission with declaration",
			err:  NewEmissionErrorf("Turret", "cannot augment a type declared inside func %s", "setup"),
			want: "[EmissionError] Turret: cannot augment a type declared inside func setup",
		},
		{
			name: "emission with position",
			err:  NewEmissionError("Turret", "boom").At("turret.go", 5, 6).At("other.go", 1, 1),
			want: "[EmissionError] turret.go:5:6 Turret: boom",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestMultiError(t *testing.T) {
	var m MultiError
	require.NoError(t, m.ErrOrNil())

	m.Append(nil)
	m.Append(NewEmissionError("A", "boom"))
	m.Append(NewSemanticError("bad"))

	err := m.ErrOrNil()
	require.Error(t, err)
	assert.Equal(t, TypeEmission, m.Type())
	assert.Contains(t, err.Error(), "2 error(s) occurred")

	var emission *EmissionError
	assert.True(t, errors.As(err, &emission))
	assert.Equal(t, "A", emission.Decl)
}
