package analysis

import (
	"dashxcel/internal/models"
	"time"
)

func text(name string, cells ...any) *models.Column {
	return models.NewColumn(name, models.KindText, cells...)
}

func num(name string, cells ...any) *models.Column {
	return models.NewColumn(name, models.KindNumber, cells...)
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func dataset(cols ...*models.Column) *models.Dataset {
	return models.NewDataset("test", cols...)
}
