package model

import "errors"

var (
	// ErrNotFound indica avaliação inexistente
	ErrNotFound = errors.New("avaliação não encontrada")

	// ErrInvalidInput indica payload inválido na borda da API
	ErrInvalidInput = errors.New("entrada inválida")

	// ErrNoTasks indica envio sem nenhuma tarefa selecionada
	ErrNoTasks = errors.New("selecione ao menos uma tarefa")

	// ErrMissingAPIKey indica que a chave do Gemini não foi configurada
	ErrMissingAPIKey = errors.New("chave da API do Gemini não configurada")

	// ErrInvalidAPIKey indica chave do Gemini recusada
	ErrInvalidAPIKey = errors.New("chave da API do Gemini inválida")

	// ErrQuotaExhausted indica que todos os modelos da sequência falharam por cota
	ErrQuotaExhausted = errors.New("cota do Gemini esgotada em todos os modelos")

	// ErrEmptyResponse indica resposta vazia do modelo
	ErrEmptyResponse = errors.New("resposta vazia do modelo")

	// ErrInvalidResponse indica JSON fora do formato esperado
	ErrInvalidResponse = errors.New("resposta inválida do modelo")

	// ErrTimeout indica timeout na chamada externa
	ErrTimeout = errors.New("timeout na requisição externa")

	// ErrInvalidSyncConfig indica configuração de sincronização incompleta
	ErrInvalidSyncConfig = errors.New("configuração de sincronização inválida")

	// ErrSyncFailed indica falha ao enviar para o destino externo
	ErrSyncFailed = errors.New("falha na sincronização")
)
