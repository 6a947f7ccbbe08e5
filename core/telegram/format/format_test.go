package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEscapeMarkdown(t *testing.T) {
	v2, err := EscapeMarkdown("a_b.c!(d)", MarkdownV2)
	require.NoError(t, err)
	assert.Equal(t, `a\_b\.c\!\(d\)`, v2)

	v1, err := EscapeMarkdown("a_b*c", MarkdownV1)
	require.NoError(t, err)
	assert.Equal(t, `a\_b\*c`, v1)

	_, err = EscapeMarkdown("x", 3)
	assert.Error(t, err)
}

func TestField(t *testing.T) {
	assert.Equal(t, `*Баланс:* \-5`, Field("Баланс", -5))
	assert.Equal(t, "*Ник:* neo\\_1", Field("Ник", "neo_1"))
}

func TestLines(t *testing.T) {
	assert.Equal(t, "a\nb", Lines("a", "", "b"))
	assert.Equal(t, "", Lines())
}

func TestDateOr(t *testing.T) {
	d := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "09.03.2024", DateOr(&d, "02.01.2006", "-"))
	assert.Equal(t, "-", DateOr(nil, "02.01.2006", "-"))
}
