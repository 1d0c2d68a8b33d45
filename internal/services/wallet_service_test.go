package services

import (
	"archive/zip"
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"fitness_portal_backend/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPayload() WalletPassPayload {
	return WalletPassPayload{
		MemberID:     1,
		MembershipID: "MEMABCDEF123456",
		FullName:     "Lena Koch",
		Email:        "lena@example.com",
		Points:       120,
		Design:       models.DefaultDesignData(),
	}
}

func testServiceAccount(t *testing.T) (string, *rsa.PrivateKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	keyPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
	account, err := json.Marshal(map[string]string{
		"client_email": "issuer@example.iam.gserviceaccount.com",
		"private_key":  string(keyPEM),
	})
	require.NoError(t, err)
	return string(account), key
}

func TestGenerateQRDataURL(t *testing.T) {
	svc := NewWalletService(WalletConfig{})

	dataURL := svc.GenerateQRDataURL(testPayload())
	assert.True(t, strings.HasPrefix(dataURL, "data:image/png;base64,"))
}

func TestBuildApplePassArchive(t *testing.T) {
	svc := NewWalletService(WalletConfig{
		ApplePassTypeID: "pass.com.example.membership",
		AppleTeamID:     "TEAM123456",
		AppleOrgName:    "FITNESSSTUDIO",
	})

	archive, err := svc.BuildApplePass(testPayload())
	require.NoError(t, err)

	reader, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	require.NoError(t, err)

	files := map[string][]byte{}
	for _, f := range reader.File {
		rc, err := f.Open()
		require.NoError(t, err)
		content, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()
		files[f.Name] = content
	}
	require.Contains(t, files, "pass.json")
	require.Contains(t, files, "manifest.json")
	require.Contains(t, files, "signature")

	var pass map[string]interface{}
	require.NoError(t, json.Unmarshal(files["pass.json"], &pass))
	assert.Equal(t, "pass.com.example.membership", pass["passTypeIdentifier"])
	assert.Equal(t, "MEMABCDEF123456", pass["serialNumber"])

	var manifest map[string]string
	require.NoError(t, json.Unmarshal(files["manifest.json"], &manifest))
	assert.Equal(t, fmt.Sprintf("%x", sha1.Sum(files["pass.json"])), manifest["pass.json"])
}

func TestBuildGoogleSaveURL(t *testing.T) {
	account, key := testServiceAccount(t)
	svc := NewWalletService(WalletConfig{
		GoogleIssuerID:       "3388000000012345678",
		GoogleServiceAccount: account,
		GoogleAllowedOrigins: []string{"https://portal.example.com"},
	})

	token, saveURL, err := svc.BuildGoogleSaveURL(testPayload())
	require.NoError(t, err)
	assert.Equal(t, "https://pay.google.com/gp/v/save/"+token, saveURL)

	parsed, err := jwt.Parse(token, func(tok *jwt.Token) (interface{}, error) {
		return &key.PublicKey, nil
	}, jwt.WithValidMethods([]string{"RS256"}), jwt.WithAudience("google"))
	require.NoError(t, err)

	claims, ok := parsed.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, "issuer@example.iam.gserviceaccount.com", claims["iss"])
	assert.Equal(t, "savetowallet", claims["typ"])

	payload, ok := claims["payload"].(map[string]interface{})
	require.True(t, ok)
	objects, ok := payload["genericObjects"].([]interface{})
	require.True(t, ok)
	require.Len(t, objects, 1)
	object := objects[0].(map[string]interface{})
	assert.Equal(t, "3388000000012345678.MEMABCDEF123456", object["id"])
	assert.Equal(t, "ACTIVE", object["state"])
}

func TestBuildGoogleSaveURLNotConfigured(t *testing.T) {
	svc := NewWalletService(WalletConfig{})

	_, _, err := svc.BuildGoogleSaveURL(testPayload())
	assert.ErrorIs(t, err, ErrWalletNotConfigured)
}

func TestGeneratePassGoogleUnconfiguredIsSoftFailure(t *testing.T) {
	svc := NewWalletService(WalletConfig{})

	result := svc.GeneratePass(testPayload(), models.WalletTypeGoogle)
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "not configured")
}

func TestGeneratePassApple(t *testing.T) {
	svc := NewWalletService(WalletConfig{})

	result := svc.GeneratePass(testPayload(), models.WalletTypeApple)
	assert.True(t, result.Success)
	assert.Equal(t, "MEMABCDEF123456", result.PassID)
	assert.Equal(t, "/api/v1/wallet/apple/1", result.PassURL)
}

func TestGeneratePassUnknownPlatform(t *testing.T) {
	svc := NewWalletService(WalletConfig{})

	result := svc.GeneratePass(testPayload(), "samsung")
	assert.False(t, result.Success)
	assert.Equal(t, ErrUnsupportedWalletType.Error(), result.Message)
}

func TestGoogleJWTExpiry(t *testing.T) {
	account, _ := testServiceAccount(t)
	fixed := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	svc := &walletService{
		cfg: WalletConfig{
			GoogleIssuerID:       "3388000000012345678",
			GoogleServiceAccount: account,
		},
		now: func() time.Time { return fixed },
	}

	token, _, err := svc.BuildGoogleSaveURL(testPayload())
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	var claims jwt.MapClaims
	raw, err := jwt.NewParser().DecodeSegment(parts[1])
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &claims))
	assert.EqualValues(t, fixed.Unix(), claims["iat"])
	assert.EqualValues(t, fixed.Add(time.Hour).Unix(), claims["exp"])
}
