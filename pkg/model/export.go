package model

import "time"

// Export records one rendered view uploaded to storage.
type Export struct {
	ID        int64     `json:"id"`
	Dataset   string    `json:"dataset"`
	View      string    `json:"view"`
	Format    string    `json:"format"`
	Metric    Metric    `json:"metric"`
	Axis      Axis      `json:"axis"`
	Buckets   int       `json:"buckets"`
	Vertices  int       `json:"vertices"`
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}
