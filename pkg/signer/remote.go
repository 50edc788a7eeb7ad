package signer

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gagliardetto/solana-go"
)

// Remote delegates signing to a managed-wallet service. Each signature is a
// single HTTP round trip with a bounded timeout; this is the only network
// I/O in the custody boundary.
type Remote struct {
	url       string
	publicKey solana.PublicKey
	client    *http.Client
}

// NewRemote builds a delegated signer for the service at url, signing on
// behalf of publicKey.
func NewRemote(url string, publicKey solana.PublicKey, timeout time.Duration) *Remote {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Remote{
		url:       url,
		publicKey: publicKey,
		client:    &http.Client{Timeout: timeout},
	}
}

func (r *Remote) PublicKey() solana.PublicKey {
	return r.publicKey
}

type remoteSignRequest struct {
	PublicKey string `json:"publicKey"`
	Message   string `json:"message"`
}

type remoteSignResponse struct {
	Signature string `json:"signature"`
	Error     string `json:"error,omitempty"`
}

// SignMessage posts the base64 message to the signing service and parses the
// base58 signature it returns.
func (r *Remote) SignMessage(ctx context.Context, message []byte) (solana.Signature, error) {
	body, err := json.Marshal(remoteSignRequest{
		PublicKey: r.publicKey.String(),
		Message:   base64.StdEncoding.EncodeToString(message),
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to encode sign request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to build sign request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("remote signer unreachable: %w", err)
	}
	defer resp.Body.Close()

	var parsed remoteSignResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return solana.Signature{}, fmt.Errorf("failed to parse signer response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if parsed.Error != "" {
			return solana.Signature{}, fmt.Errorf("remote signer refused: %s", parsed.Error)
		}
		return solana.Signature{}, fmt.Errorf("remote signer returned status %d", resp.StatusCode)
	}

	sig, err := solana.SignatureFromBase58(parsed.Signature)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("remote signer returned a malformed signature: %w", err)
	}
	return sig, nil
}
