package filesystem

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PayloadArchive stores raw device payloads in S3 for offline audit of
// decode warnings. Keys: raw/<device>/<date>/<uuid>.log
type PayloadArchive struct {
	Bucket string
}

func NewPayloadArchive(bucket string) *PayloadArchive {
	return &PayloadArchive{Bucket: bucket}
}

func (a *PayloadArchive) Store(device string, ts time.Time, payload []byte) error {
	key := fmt.Sprintf("raw/%s/%s/%s.log", device, ts.Format("2006-01-02"), uuid.NewString())

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	return WriteFile(a.Bucket, key, ctx, payload)
}
