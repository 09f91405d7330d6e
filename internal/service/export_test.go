package service

import (
	"bytes"
	"dashxcel/internal/models"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCSV(t *testing.T) {
	stamp := time.Date(2024, 1, 2, 10, 30, 0, 0, time.UTC)
	ds := models.NewDataset("out",
		models.NewColumn("Region", models.KindText, "NA", "Eu, West", nil),
		models.NewColumn("Sales", models.KindNumber, 10.0, 2.5, nil),
		models.NewColumn("Date", models.KindTime, day("2024-01-01"), nil, day("2024-03-01")),
		models.NewColumn("Stamp", models.KindTime, stamp, day("2024-01-03"), nil),
		models.NewColumn("Active", models.KindBool, true, false, nil),
	)

	var buf bytes.Buffer
	require.NoError(t, NewExportService().WriteCSV(&buf, ds))

	want := "Region,Sales,Date,Stamp,Active\n" +
		"NA,10,2024-01-01,2024-01-02 10:30:00,True\n" +
		"\"Eu, West\",2.5,,2024-01-03 00:00:00,False\n" +
		",,2024-03-01,,\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteCSV_EmptyDataset(t *testing.T) {
	ds := models.NewDataset("out", models.NewColumn("A", models.KindText))

	var buf bytes.Buffer
	require.NoError(t, NewExportService().WriteCSV(&buf, ds))
	assert.Equal(t, "A\n", buf.String())
}

func TestFormatFloat(t *testing.T) {
	assert.Equal(t, "18", formatFloat(18))
	assert.Equal(t, "0.1", formatFloat(0.1))
	assert.Equal(t, "-3.25", formatFloat(-3.25))
	assert.Equal(t, "1e+21", formatFloat(1e21))
}
