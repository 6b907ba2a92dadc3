package sdtp

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestType(t *testing.T) {
	t.Parallel()

	t.Run("Names", func(t *testing.T) {
		t.Parallel()

		for _, name := range []string{"string", "number", "boolean", "date", "timeofday", "datetime", "any"} {
			typ, err := ParseType(name)
			if assert.NoError(t, err) {
				assert.True(t, typ.Valid())
				assert.Equal(t, name, typ.String())
			}
		}

		_, err := ParseType("time")
		assert.EqualError(t, err, `unknown column type "time"`)
		assert.False(t, Type(0).Valid())
	})

	t.Run("Column", func(t *testing.T) {
		t.Parallel()

		raw, err := json.Marshal([]Column{{Name: "at", Type: TypeTimeOfDay}})
		require.NoError(t, err)
		assert.JSONEq(t, `[{"name": "at", "type": "timeofday"}]`, string(raw))

		var col Column
		assert.Error(t, json.Unmarshal([]byte(`{"name": "x", "type": "integer"}`), &col))

		_, err = json.Marshal(Column{Name: "x"})
		assert.Error(t, err, "the zero Type has no wire name")
	})
}

func TestError(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("dispatching: %w", SchemaErrorf("AND[1].height", "unknown column %q", "height"))
	assert.Equal(t, KindSchema, KindOf(err))
	assert.Equal(t, "SchemaError at AND[1].height: unknown column \"height\"", AsError(err).Error())
	assert.Equal(t, &ErrorResponse{ErrorKind: KindSchema, Message: `unknown column "height"`, Path: "AND[1].height"},
		AsError(err).Response())

	plain := fmt.Errorf("disk on fire")
	assert.Equal(t, KindInternal, KindOf(plain))
	assert.Equal(t, "InternalError: disk on fire", AsError(plain).Error())

	assert.Equal(t, http.StatusNotFound, KindNotFound.HTTPStatus())
	assert.Equal(t, http.StatusGatewayTimeout, KindTimeout.HTTPStatus())
	assert.Equal(t, http.StatusInternalServerError, KindInternal.HTTPStatus())
	assert.Equal(t, http.StatusBadRequest, KindType.HTTPStatus())
}
