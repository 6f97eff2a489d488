package csvparse_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sendkite/broadcast-backend/internal/csvparse"
)

func TestParseSimple(t *testing.T) {
	rows := csvparse.Parse("name,phone\nAlice,0123456789\nBob,0198765432\n")
	assert.Equal(t, [][]string{
		{"name", "phone"},
		{"Alice", "0123456789"},
		{"Bob", "0198765432"},
	}, rows)
}

func TestParseTabDelimited(t *testing.T) {
	rows := csvparse.Parse("name\tphone\nAlice\t0123456789")
	assert.Equal(t, [][]string{
		{"name", "phone"},
		{"Alice", "0123456789"},
	}, rows)
}

func TestParseQuotedFields(t *testing.T) {
	rows := csvparse.Parse(`name,note
"Smith, Alice","said ""hi"""`)
	assert.Equal(t, [][]string{
		{"name", "note"},
		{"Smith, Alice", `said "hi"`},
	}, rows)
}

func TestParseQuotedNewline(t *testing.T) {
	rows := csvparse.Parse("name,note\n\"Alice\",\"line one\nline two\"\n")
	assert.Len(t, rows, 2)
	assert.Equal(t, "line one\nline two", rows[1][1])
}

func TestParseCRLFAndBareCR(t *testing.T) {
	rows := csvparse.Parse("a,b\r\nc,d\re,f")
	assert.Equal(t, [][]string{{"a", "b"}, {"c", "d"}, {"e", "f"}}, rows)
}

func TestParseDropsBlankRows(t *testing.T) {
	rows := csvparse.Parse("a,b\n\n , \nc,d\n,,\n")
	assert.Equal(t, [][]string{{"a", "b"}, {"c", "d"}}, rows)
}

func TestParseTrimsCells(t *testing.T) {
	rows := csvparse.Parse(" a , b \n")
	assert.Equal(t, [][]string{{"a", "b"}}, rows)
}

func TestParseFlushesUnterminatedRow(t *testing.T) {
	rows := csvparse.Parse("a,b\nc,d")
	assert.Equal(t, [][]string{{"a", "b"}, {"c", "d"}}, rows)
}

func TestParseEmptyInput(t *testing.T) {
	assert.Empty(t, csvparse.Parse(""))
	assert.Empty(t, csvparse.Parse("\n\n"))
}
