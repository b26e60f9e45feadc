package reports

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "", FormatValue(nil))
	assert.Equal(t, "42", FormatValue(int64(42)))
	assert.Equal(t, "40.2", FormatValue(40.2))
	assert.Equal(t, "2017-11-01", FormatValue(time.Date(2017, 11, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2017-11-01 10:56:33", FormatValue(time.Date(2017, 11, 1, 10, 56, 33, 0, time.UTC)))
}

func TestWriteCSV(t *testing.T) {
	table := &Table{
		Columns: []string{"customer_city", "customer_count"},
		Rows: []Row{
			{"customer_city": "sao paulo", "customer_count": int64(2)},
			{"customer_city": "rio, capital", "customer_count": int64(1)},
		},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, table))
	assert.Equal(t, "customer_city,customer_count\nsao paulo,2\n\"rio, capital\",1\n", buf.String())
}
