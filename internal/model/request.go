package model

// ExtractRequest representa o payload de extração sem persistência
type ExtractRequest struct {
	Lines []string `json:"lines"`
	Text  string   `json:"text"`
}

// CompletionState representa o estado de uma tarefa enviado pelo cliente
type CompletionState struct {
	ID        int  `json:"id"`
	Completed bool `json:"completed"`
}

// SaveProgressRequest representa o payload de "salvar progresso" de um dia
type SaveProgressRequest struct {
	Tasks []CompletionState `json:"tasks" binding:"required"`
}

// ToggleTaskRequest representa a marcação de uma única tarefa
type ToggleTaskRequest struct {
	Completed *bool `json:"completed" binding:"required"`
}

// Response representa a resposta padrão da API
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
	Errors  []string    `json:"errors,omitempty"`
}

// Meta contém metadados da resposta
type Meta struct {
	TotalTasks     int `json:"total_tasks,omitempty"`
	DiscardedLines int `json:"discarded_lines,omitempty"`
	TotalRows      int `json:"total_rows,omitempty"`
}

// ErrorResponse representa uma resposta de erro
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
