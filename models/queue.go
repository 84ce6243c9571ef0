package models

import "time"

// QueueEntry - команда, ожидающая очереди на стол. Порядок строго FIFO
// по created_at, при равенстве - по id вставки.
type QueueEntry struct {
	ID        int       `json:"id"`
	Team      Team      `json:"team"`
	CreatedAt time.Time `json:"createdAt"`
}
