package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnolang/witness/internal/analysis"
	"github.com/gnolang/witness/internal/analysis/cfg"
	"github.com/gnolang/witness/internal/analysis/lattice"
)

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text    string
		wantErr bool
	}{
		{"x == 1", false},
		{"0 <= i && i < n", false},
		{"!(x != 0) || -y > +2", false},
		{"(a + b) * 3 % 2 == a / 2", false},
		{"0x10 == x", false},
		{"x.y == 1", true},
		{"f(x)", true},
		{"x ^ 1", true},
		{`x == "s"`, true},
		{"x <<", true},
		{"99999999999999999999 == x", true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.text, func(t *testing.T) {
			t.Parallel()
			u, err := Parse(tt.text)
			if tt.wantErr {
				var se *SyntaxError
				assert.ErrorAs(t, err, &se)
				assert.Nil(t, u)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.text, u.String())
		})
	}
}

func TestBind(t *testing.T) {
	t.Parallel()

	fn := &cfg.Function{Name: "f", Declarations: []string{"i", "n"}}
	globals := map[string]bool{"g": true}

	u, err := Parse("((i)) < n && g >= i")
	require.NoError(t, err)

	e, err := Bind(u, fn, globals)
	require.NoError(t, err)
	assert.Equal(t, []string{"i", "n", "g"}, e.Vars())
	assert.Equal(t, "((i)) < n && g >= i", e.String())

	u, err = Parse("i < k")
	require.NoError(t, err)
	_, err = Bind(u, fn, globals)
	var be *BindError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, "k", be.Name)
	assert.Equal(t, "f", be.Function)

	_, err = Bind(u, nil, globals)
	require.ErrorAs(t, err, &be)
	assert.Empty(t, be.Function)
}

func TestBindDoesNotModifyUnbound(t *testing.T) {
	t.Parallel()

	u, err := Parse("(x)")
	require.NoError(t, err)

	fn := &cfg.Function{Name: "f", Declarations: []string{"x"}}
	_, err = Bind(u, fn, nil)
	require.NoError(t, err)
	_, err = Bind(u, fn, nil)
	require.NoError(t, err)
	assert.Equal(t, "(x)", u.String())
}

func TestEval(t *testing.T) {
	t.Parallel()

	fn := &cfg.Function{Name: "f", Declarations: []string{"x", "y"}}
	state := lattice.AbstractState{
		"x": lattice.Range(0, 10),
		"y": lattice.Const(3),
	}

	tests := []struct {
		text string
		want analysis.Truth
	}{
		{"0 <= x", analysis.True},
		{"x <= 10 && y == 3", analysis.True},
		{"x > 10", analysis.False},
		{"x < 5", analysis.Unknown},
		{"x < 5 || y == 3", analysis.True},
		{"!(y == 3)", analysis.False},
		{"y * 2 - 1 == 5", analysis.True},
		{"y % 2 == 1", analysis.True},
		{"-x <= 0", analysis.True},
		{"x + y >= 3", analysis.True},
		{"y != 3", analysis.False},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.text, func(t *testing.T) {
			t.Parallel()
			u, err := Parse(tt.text)
			require.NoError(t, err)
			e, err := Bind(u, fn, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, e.Eval(state))
		})
	}
}

func TestEvalUnreachable(t *testing.T) {
	t.Parallel()

	u, err := Parse("x == 1")
	require.NoError(t, err)
	e, err := Bind(u, &cfg.Function{Name: "f", Declarations: []string{"x"}}, nil)
	require.NoError(t, err)

	assert.Equal(t, analysis.Unreachable, e.Eval(nil))
	assert.Equal(t, analysis.Unknown, e.Eval(lattice.AbstractState{}))
}

func TestParserInterface(t *testing.T) {
	t.Parallel()

	var p analysis.Parser = NewParser("g")

	u, err := p.Parse("g > 0")
	require.NoError(t, err)
	e, err := p.Bind(u, nil)
	require.NoError(t, err)
	assert.Equal(t, "g > 0", e.String())

	u, err = p.Parse("g >")
	assert.Error(t, err)
	assert.Nil(t, u)
}
