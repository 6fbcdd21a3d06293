package clients

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
)

// SigningTransport is an http.RoundTripper that signs requests with AWS SigV4
// for one service and region.
type SigningTransport struct {
	credentials aws.CredentialsProvider
	service     string
	region      string
	signer      *v4.Signer
	base        http.RoundTripper
	now         func() time.Time
}

// NewSigningTransport creates a transport that signs every request for
// service in region. A nil base uses http.DefaultTransport.
func NewSigningTransport(creds aws.CredentialsProvider, service, region string, base http.RoundTripper) *SigningTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &SigningTransport{
		credentials: creds,
		service:     service,
		region:      region,
		signer:      v4.NewSigner(),
		base:        base,
		now:         time.Now,
	}
}

// Service returns the signing service name.
func (t *SigningTransport) Service() string { return t.service }

// Region returns the signing region.
func (t *SigningTransport) Region() string { return t.region }

// RoundTrip signs a clone of req and sends it through the base transport.
func (t *SigningTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var body []byte
	if req.Body != nil {
		var err error
		body, err = io.ReadAll(req.Body)
		if err != nil {
			return nil, fmt.Errorf("read request body for signing: %w", err)
		}
		_ = req.Body.Close()
	}

	// RoundTrippers must not modify the caller's request.
	signed := req.Clone(req.Context())
	signed.Body = io.NopCloser(bytes.NewReader(body))
	signed.ContentLength = int64(len(body))

	creds, err := t.credentials.Retrieve(req.Context())
	if err != nil {
		return nil, fmt.Errorf("retrieve AWS credentials: %w", err)
	}

	payloadHash := fmt.Sprintf("%x", sha256.Sum256(body))
	if err := t.signer.SignHTTP(req.Context(), creds, signed, payloadHash, t.service, t.region, t.now()); err != nil {
		return nil, fmt.Errorf("sign %s request: %w", t.service, err)
	}

	return t.base.RoundTrip(signed)
}
