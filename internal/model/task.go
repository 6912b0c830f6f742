package model

import (
	"fmt"
	"time"
)

// DateLayout é o formato ISO usado em datas de registros e chaves de persistência
const DateLayout = "2006-01-02"

// TaskEntry representa uma linha reconhecida como tarefa
type TaskEntry struct {
	TaskName  string `json:"taskName"`
	TimeRange string `json:"timeRange,omitempty"` // "H:MM - H:MM", "H:MM" ou vazio
	FullText  string `json:"text"`
}

// HasTimeRange indica se a tarefa possui horário
func (e TaskEntry) HasTimeRange() bool {
	return e.TimeRange != ""
}

// DailyTask é uma tarefa dentro do registro de um dia
type DailyTask struct {
	ID int `json:"id"`
	TaskEntry
	Completed bool `json:"completed"`
}

// DailyRecord é o conjunto de tarefas de uma data com o estado de conclusão
type DailyRecord struct {
	Date           string      `json:"date"`
	Tasks          []DailyTask `json:"tasks"`
	CompletedCount int         `json:"completedCount"`
	TotalCount     int         `json:"totalCount"`
	Percentage     int         `json:"percentage"`
}

// ReportRow contém as estatísticas de conclusão de um dia
type ReportRow struct {
	Date           string `json:"date"`
	CompletedCount int    `json:"completed"`
	TotalCount     int    `json:"total"`
	Percentage     int    `json:"percentage"`
}

// ProgressKey retorna a chave de persistência de uma data ("progress_2025-01-07")
func ProgressKey(date time.Time) string {
	return fmt.Sprintf("progress_%s", date.Format(DateLayout))
}
