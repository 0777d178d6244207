// Package sigv4 signs single HTTP requests for S3-compatible object storage
// using AWS Signature Version 4, built on the standard library hash and HMAC
// primitives only.
//
// The path bytes hashed into the signature must be the path bytes sent on the
// wire; EncodePath is shared with the transport side so the two can never
// drift apart.
package sigv4

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	algorithm     = "AWS4-HMAC-SHA256"
	service       = "s3"
	requestSuffix = "aws4_request"
	timeFormat    = "20060102T150405Z"
	dateFormat    = "20060102"

	// The canonical header block is fixed: host, then the two x-amz headers,
	// in this order. The transport supplies Host itself and must not add it
	// to the header map.
	signedHeaderList = "host;x-amz-content-sha256;x-amz-date"
)

// Credentials is an access key pair for an S3-compatible provider.
type Credentials struct {
	AccessKeyID     string
	SecretAccessKey string
}

// Signer signs requests for one credential/region pair. The supported
// providers use the literal region "auto".
type Signer struct {
	creds  Credentials
	region string
}

// New returns a Signer for the given credentials and region.
func New(creds Credentials, region string) *Signer {
	if region == "" {
		region = "auto"
	}
	return &Signer{creds: creds, region: region}
}

// Sign computes the signature over the request method, encoded path, and
// payload at the given time, and sets the x-amz-content-sha256, x-amz-date,
// and Authorization headers. A nil payload signs the digest of zero bytes.
func (s *Signer) Sign(req *http.Request, payload []byte, now time.Time) {
	amzDate := now.UTC().Format(timeFormat)
	date := now.UTC().Format(dateFormat)
	payloadSHA := hashHex(payload)
	host := req.Host
	if host == "" {
		host = req.URL.Host
	}
	canonical := canonicalRequest(req.Method, req.URL.EscapedPath(), host, payloadSHA, amzDate)
	scope := strings.Join([]string{date, s.region, service, requestSuffix}, "/")
	toSign := stringToSign(amzDate, scope, hashHex([]byte(canonical)))
	key := signingKey(s.creds.SecretAccessKey, date, s.region)
	signature := hex.EncodeToString(hmacSHA256(key, []byte(toSign)))

	req.Header.Set("x-amz-content-sha256", payloadSHA)
	req.Header.Set("x-amz-date", amzDate)
	req.Header.Set("Authorization", fmt.Sprintf("%s Credential=%s/%s, SignedHeaders=%s, Signature=%s",
		algorithm, s.creds.AccessKeyID, scope, signedHeaderList, signature))
}

// canonicalRequest builds the exact byte string whose hash is signed.
func canonicalRequest(method, encodedPath, host, payloadSHA, amzDate string) string {
	return strings.Join([]string{
		method,
		encodedPath,
		"", // query string is always empty for these requests
		"host:" + host,
		"x-amz-content-sha256:" + payloadSHA,
		"x-amz-date:" + amzDate,
		"",
		signedHeaderList,
		payloadSHA,
	}, "\n")
}

func stringToSign(amzDate, scope, canonicalSHA string) string {
	return strings.Join([]string{algorithm, amzDate, scope, canonicalSHA}, "\n")
}

// signingKey derives the request signing key via the chained HMAC sequence
// seeded with "AWS4" + secret.
func signingKey(secret, date, region string) []byte {
	k := hmacSHA256([]byte("AWS4"+secret), []byte(date))
	k = hmacSHA256(k, []byte(region))
	k = hmacSHA256(k, []byte(service))
	return hmacSHA256(k, []byte(requestSuffix))
}

func hmacSHA256(key, data []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(data)
	return mac.Sum(nil)
}

func hashHex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// EncodePath percent-encodes a slash-separated object path the way S3
// expects: each segment is escaped with unreserved characters (and the
// separating slashes) left intact, spaces as %20, hex digits uppercase.
func EncodePath(p string) string {
	segments := strings.Split(p, "/")
	for i, seg := range segments {
		segments[i] = encodeSegment(seg)
	}
	return strings.Join(segments, "/")
}

func encodeSegment(seg string) string {
	var b strings.Builder
	for _, c := range []byte(seg) {
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9',
			c == '-', c == '_', c == '.', c == '~':
			b.WriteByte(c)
		default:
			fmt.Fprintf(&b, "%%%02X", c)
		}
	}
	return b.String()
}
