package schema

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/factory/internal/ir"
)

const extraSchema = `
#Extra: {
	name: string
	n?:   int & >=0
}
`

func TestValidate_Definition(t *testing.T) {
	v, err := Compile("extra.cue", []byte(extraSchema))
	require.NoError(t, err)

	tests := []struct {
		name  string
		extra ir.IRObject
		ok    bool
	}{
		{"required only", ir.IRObject{"name": ir.IRString("a")}, true},
		{"with optional", ir.IRObject{"name": ir.IRString("a"), "n": ir.IRInt(3)}, true},
		{"missing required", ir.IRObject{"n": ir.IRInt(3)}, false},
		{"wrong type", ir.IRObject{"name": ir.IRInt(1)}, false},
		{"constraint violated", ir.IRObject{"name": ir.IRString("a"), "n": ir.IRInt(-1)}, false},
		{"undeclared field", ir.IRObject{"name": ir.IRString("a"), "other": ir.IRBool(true)}, false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.extra)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.Error(t, err)
		})
	}
}

func TestValidate_WholeFileIsSchema(t *testing.T) {
	v, err := Compile("open.cue", []byte(`tags: [...string]`))
	require.NoError(t, err)

	assert.NoError(t, v.Validate(ir.IRObject{"tags": ir.IRArray{ir.IRString("x")}, "free": ir.IRInt(1)}))
	assert.Error(t, v.Validate(ir.IRObject{"tags": ir.IRArray{ir.IRInt(1)}}))
}

func TestValidate_DefaultsMakeFieldsConcrete(t *testing.T) {
	v, err := Compile("tier.cue", []byte(`#Extra: {tier: *"basic" | "pro"}`))
	require.NoError(t, err)

	assert.NoError(t, v.Validate(ir.IRObject{}))
	assert.NoError(t, v.Validate(ir.IRObject{"tier": ir.IRString("pro")}))
	assert.Error(t, v.Validate(ir.IRObject{"tier": ir.IRString("gold")}))
}

func TestCompile_SyntaxErrorHasPosition(t *testing.T) {
	_, err := Compile("broken.cue", []byte("#Extra: {\n\tname: \n"))
	require.Error(t, err)

	var se *Error
	require.ErrorAs(t, err, &se)
	assert.True(t, se.Pos.IsValid())
	assert.Contains(t, err.Error(), "broken.cue:")
}

func TestCompile_RejectsNonObject(t *testing.T) {
	_, err := Compile("scalar.cue", []byte(`#Extra: string`))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "extra.cue")
	require.NoError(t, os.WriteFile(path, []byte(extraSchema), 0o644))

	v, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, v.Source())

	_, err = Load(filepath.Join(t.TempDir(), "missing.cue"))
	assert.Error(t, err)
}

func TestValidate_Concurrent(t *testing.T) {
	v, err := Compile("extra.cue", []byte(extraSchema))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, v.Validate(ir.IRObject{"name": ir.IRString("x")}))
		}()
	}
	wg.Wait()
}
