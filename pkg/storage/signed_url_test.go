package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSignedURLRoundTrip(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)

	token, expiresAt, err := signer.Generate("stu-1", "stu-1/abc-report.pdf")
	require.NoError(t, err)
	require.True(t, expiresAt.After(time.Now()))

	ownerID, relPath, _, err := signer.Parse(token)
	require.NoError(t, err)
	require.Equal(t, "stu-1", ownerID)
	require.Equal(t, "stu-1/abc-report.pdf", relPath)
}

func TestSignedURLRejectsTampering(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)

	token, _, err := signer.Generate("stu-1", "stu-1/file.zip")
	require.NoError(t, err)

	_, _, _, err = signer.Parse(token + "x")
	require.Error(t, err)

	other := NewSignedURLSigner("different", time.Hour)
	_, _, _, err = other.Parse(token)
	require.Error(t, err)
}

func TestSignedURLRejectsExpired(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)

	expired := time.Now().Add(-time.Minute)
	encodedPath := base64.RawURLEncoding.EncodeToString([]byte("stu-1/file.zip"))
	payload := fmt.Sprintf("%s|%d|%s", "stu-1", expired.Unix(), encodedPath)
	mac := hmac.New(sha256.New, signer.secret)
	_, _ = mac.Write([]byte(payload))
	signature := hex.EncodeToString(mac.Sum(nil))
	token := fmt.Sprintf("stu-1.%d.%s.%s", expired.Unix(), encodedPath, signature)

	_, _, _, err := signer.Parse(token)
	require.ErrorContains(t, err, "expired")
}
