package model

import "errors"

var (
	// ErrInvalidDate indica data fora do formato YYYY-MM-DD
	ErrInvalidDate = errors.New("data inválida, use o formato YYYY-MM-DD")

	// ErrTaskNotFound indica que o id não existe no registro do dia
	ErrTaskNotFound = errors.New("tarefa não encontrada no registro do dia")

	// ErrMalformedRecord indica registro persistido que não pôde ser decodificado
	ErrMalformedRecord = errors.New("registro de progresso corrompido")

	// ErrInvalidWindow indica intervalo de relatório inválido
	ErrInvalidWindow = errors.New("intervalo de relatório inválido")
)
