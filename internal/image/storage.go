// Package image はS3への画像アップロード用の署名付きURL発行と、画像URLの検証を提供する。
package image

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/newleaf/newleaf/internal/model"
	"github.com/newleaf/newleaf/internal/security"
)

// PresignExpiry は署名付きアップロードURLの有効期間。
const PresignExpiry = 60 * time.Second

// unsafeNameChars はオブジェクトキーに使わない文字。
var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// SignedUpload は署名付きアップロードURLとアップロード後の公開URL。
type SignedUpload struct {
	UploadURL string `json:"upload_url"`
	PublicURL string `json:"public_url"`
	Key       string `json:"key"`
}

// presigner はS3 PresignClientのうち利用するメソッド。
type presigner interface {
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// headClient はS3クライアントのうち利用するメソッド。
type headClient interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// Config はS3Storageの設定。
type Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	Bucket          string
	Prefix          string
}

// S3Storage はS3バケットを使った画像ストレージ。
type S3Storage struct {
	presigner presigner
	client    headClient
	guard     security.OutboundGuard
	bucket    string
	region    string
	prefix    string
	now       func() time.Time
}

// NewS3Storage は静的認証情報でS3Storageを生成する。
func NewS3Storage(cfg Config) *S3Storage {
	client := s3.New(s3.Options{
		Region:      cfg.Region,
		Credentials: aws.NewCredentialsCache(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
	})
	return newS3Storage(s3.NewPresignClient(client), client, cfg)
}

func newS3Storage(p presigner, c headClient, cfg Config) *S3Storage {
	return &S3Storage{
		presigner: p,
		client:    c,
		guard:     security.NewHTTPSOnlyGuard(),
		bucket:    cfg.Bucket,
		region:    cfg.Region,
		prefix:    cfg.Prefix,
		now:       time.Now,
	}
}

// SanitizeFileName はファイル名から英数字と . _ - 以外を _ に置き換える。
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	name = unsafeNameChars.ReplaceAllString(name, "_")
	if name == "" {
		return "image"
	}
	return name
}

// host はバケットの公開ホスト名を返す。
func (s *S3Storage) host() string {
	return fmt.Sprintf("%s.s3.%s.amazonaws.com", s.bucket, s.region)
}

// PublicURL はオブジェクトキーの公開URLを返す。
func (s *S3Storage) PublicURL(key string) string {
	return "https://" + s.host() + "/" + key
}

// GenerateSignedURL は画像アップロード用の署名付きPUT URLを発行する。
// MIMEタイプはimage/で始まる必要がある。
func (s *S3Storage) GenerateSignedURL(ctx context.Context, fileName, mimeType string) (*SignedUpload, error) {
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, model.NewInvalidFileTypeError(mimeType)
	}
	if strings.TrimSpace(fileName) == "" {
		return nil, model.NewValidationError("file_name", "必須項目です。")
	}

	key := fmt.Sprintf("%s%d_%s", s.prefix, s.now().UnixMilli(), SanitizeFileName(fileName))
	req, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(mimeType),
	}, s3.WithPresignExpires(PresignExpiry))
	if err != nil {
		return nil, fmt.Errorf("署名付きURLの発行に失敗しました: %w", err)
	}
	return &SignedUpload{UploadURL: req.URL, PublicURL: s.PublicURL(key), Key: key}, nil
}

// KeyFromURL はバケットの公開URLからオブジェクトキーを取り出す。
// バケットのhttps URLでない場合はfalseを返す。
func (s *S3Storage) KeyFromURL(rawURL string) (string, bool) {
	if err := s.guard.ValidateURL(rawURL); err != nil {
		return "", false
	}
	u, err := url.Parse(rawURL)
	if err != nil || !strings.EqualFold(u.Hostname(), s.host()) || u.Port() != "" {
		return "", false
	}
	key := strings.TrimPrefix(u.Path, "/")
	if key == "" {
		return "", false
	}
	return key, true
}

// ValidateImageURL は画像URLがバケット上に実在するオブジェクトを指すかを返す。
// 失敗はすべてfalseとして扱う。
func (s *S3Storage) ValidateImageURL(ctx context.Context, rawURL string) bool {
	key, ok := s.KeyFromURL(rawURL)
	if !ok {
		return false
	}
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		slog.Debug("画像オブジェクトが見つかりません", slog.String("key", key), slog.String("error", err.Error()))
		return false
	}
	return true
}
