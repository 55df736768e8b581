package egress

import (
	"bytes"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	"github.com/freyr-engine/freyr/internal/frame"
)

// S3Config configures a periodic snapshot archiver that uploads the current
// egress buffer to an S3 bucket on an interval, rather than on every frame —
// a production strip flushes at 30-120Hz and S3 has no business seeing that.
type S3Config struct {
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	Prefix    string
	Interval  time.Duration // minimum time between uploads, default 10s
}

// S3Backend periodically archives a raw RGB snapshot of its pixel range to
// S3 under Prefix/<unix-nano>.rgb. It is an egress.Backend like any other,
// but most Flush calls are no-ops: only the first call past Interval since
// the last upload actually talks to S3.
type S3Backend struct {
	client *s3.S3
	cfg    S3Config

	mu       sync.Mutex
	lastPush time.Time
}

// NewS3Backend opens an AWS session from static credentials and confirms the
// bucket is reachable before returning.
func NewS3Backend(cfg S3Config) (*S3Backend, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 egress: bucket is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("s3 egress: access key and secret key are required")
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 10 * time.Second
	}

	sess, err := session.NewSession(&aws.Config{
		Region:      aws.String(cfg.Region),
		Credentials: credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, ""),
	})
	if err != nil {
		return nil, fmt.Errorf("s3 egress: create session: %w", err)
	}

	client := s3.New(sess)
	if _, err := client.HeadBucket(&s3.HeadBucketInput{Bucket: aws.String(cfg.Bucket)}); err != nil {
		return nil, fmt.Errorf("s3 egress: access bucket: %w", err)
	}

	return &S3Backend{client: client, cfg: cfg}, nil
}

// Flush uploads a raw R,G,B byte triple per pixel to S3, at most once every
// cfg.Interval. Calls inside the throttle window return nil without talking
// to the network.
func (b *S3Backend) Flush(offset, count int, pixels []frame.Pixel) error {
	b.mu.Lock()
	due := time.Since(b.lastPush) >= b.cfg.Interval
	if due {
		b.lastPush = time.Now()
	}
	b.mu.Unlock()
	if !due {
		return nil
	}

	buf := make([]byte, 0, count*3)
	for i := 0; i < count; i++ {
		p := pixels[i].Clamp()
		buf = append(buf, byte(p.R*255), byte(p.G*255), byte(p.B*255))
	}

	key := fmt.Sprintf("%s%d.rgb", keyPrefix(b.cfg.Prefix), time.Now().UnixNano())
	_, err := b.client.PutObject(&s3.PutObjectInput{
		Bucket:        aws.String(b.cfg.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(buf),
		ContentLength: aws.Int64(int64(len(buf))),
		ContentType:   aws.String("application/octet-stream"),
	})
	if err != nil {
		return fmt.Errorf("s3 egress: put object %q: %w", key, err)
	}
	return nil
}

// Close is a no-op: the AWS SDK's S3 client holds no resources that need
// releasing on shutdown.
func (b *S3Backend) Close() error { return nil }

func keyPrefix(prefix string) string {
	if prefix == "" {
		return ""
	}
	return prefix + "/"
}
