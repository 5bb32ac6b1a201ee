package chromedata

import (
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// DefaultScheme 授权头的方案名
const DefaultScheme = "Atmosphere"

// Credentials 供应商签名凭据
type Credentials struct {
	Scheme    string
	Realm     string
	AppID     string
	AppSecret string
}

// SecretDigest 计算 base64(SHA1(nonce + timestamp + appSecret))
func SecretDigest(nonce string, timestamp int64, appSecret string) string {
	sum := sha1.Sum([]byte(nonce + strconv.FormatInt(timestamp, 10) + appSecret))
	return base64.StdEncoding.EncodeToString(sum[:])
}

// Sign 生成 Authorization 头
func Sign(creds Credentials, nonce string, timestamp int64) string {
	scheme := creds.Scheme
	if scheme == "" {
		scheme = DefaultScheme
	}

	return fmt.Sprintf(
		`%s realm="%s",chromedata_app_id="%s",chromedata_nonce="%s",chromedata_secret_digest="%s",chromedata_digest_method="SHA1",chromedata_version="1.0",chromedata_timestamp="%d"`,
		scheme,
		creds.Realm,
		creds.AppID,
		nonce,
		SecretDigest(nonce, timestamp, creds.AppSecret),
		timestamp,
	)
}

// NewNonce 每个请求一个随机 nonce
func NewNonce() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
