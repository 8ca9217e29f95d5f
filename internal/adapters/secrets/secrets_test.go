package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	secretsmanagertypes "github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestLocalProvider_Formats(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "mealplan"), 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mealplan", "jwt"), []byte("plain-secret\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mealplan", "cron.json"), []byte(`{"value":"json-secret","version":"2"}`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "empty"), []byte("  \n"), 0o600))

	p := NewLocalProvider(dir, zaptest.NewLogger(t))
	ctx := context.Background()

	s, err := p.GetSecret(ctx, "mealplan/jwt")
	require.NoError(t, err)
	assert.Equal(t, "plain-secret", s.Value)

	s, err = p.GetSecret(ctx, "mealplan/cron.json")
	require.NoError(t, err)
	assert.Equal(t, "json-secret", s.Value)
	assert.Equal(t, "2", s.Version)

	_, err = p.GetSecret(ctx, "missing")
	assert.ErrorIs(t, err, ErrSecretNotFound)

	_, err = p.GetSecret(ctx, "empty")
	assert.ErrorIs(t, err, ErrSecretNotFound)
}

func TestLocalProvider_StaysUnderBasePath(t *testing.T) {
	root := t.TempDir()
	base := filepath.Join(root, "secrets")
	require.NoError(t, os.MkdirAll(base, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(root, "outside"), []byte("nope"), 0o600))

	p := NewLocalProvider(base, zaptest.NewLogger(t))
	_, err := p.GetSecret(context.Background(), "../outside")
	assert.ErrorIs(t, err, ErrSecretNotFound)
}

func TestSecretCache_Expiry(t *testing.T) {
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	c := newSecretCache(time.Minute)
	c.now = func() time.Time { return now }

	c.set("a", &Secret{Value: "v"})
	require.NotNil(t, c.get("a"))

	now = now.Add(time.Minute)
	assert.Nil(t, c.get("a"))

	disabled := newSecretCache(0)
	disabled.set("a", &Secret{Value: "v"})
	assert.Nil(t, disabled.get("a"))
}

type fakeSecretsManager struct {
	values map[string]string
	calls  int
	err    error
}

func (f *fakeSecretsManager) GetSecretValue(_ context.Context, in *secretsmanager.GetSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	v, ok := f.values[aws.ToString(in.SecretId)]
	if !ok {
		return nil, &secretsmanagertypes.ResourceNotFoundException{Message: aws.String("no such secret")}
	}
	return &secretsmanager.GetSecretValueOutput{SecretString: aws.String(v), VersionId: aws.String("v1")}, nil
}

func TestAWSProvider_GetSecret(t *testing.T) {
	fake := &fakeSecretsManager{values: map[string]string{"mealplan/jwt": "aws-secret"}}
	p := newAWSProvider(fake, time.Minute, zaptest.NewLogger(t))
	ctx := context.Background()

	s, err := p.GetSecret(ctx, "mealplan/jwt")
	require.NoError(t, err)
	assert.Equal(t, "aws-secret", s.Value)
	assert.Equal(t, "v1", s.Version)

	// served from cache
	_, err = p.GetSecret(ctx, "mealplan/jwt")
	require.NoError(t, err)
	assert.Equal(t, 1, fake.calls)

	_, err = p.GetSecret(ctx, "mealplan/other")
	assert.ErrorIs(t, err, ErrSecretNotFound)
}

func TestAWSProvider_BackendError(t *testing.T) {
	fake := &fakeSecretsManager{err: errors.New("throttled")}
	p := newAWSProvider(fake, time.Minute, zaptest.NewLogger(t))

	_, err := p.GetSecret(context.Background(), "mealplan/jwt")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSecretNotFound)
	assert.Contains(t, err.Error(), "throttled")
}

func TestVaultProvider_KVv2(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-token", r.Header.Get("X-Vault-Token"))
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v1/secret/data/mealplan/jwt":
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"data": map[string]interface{}{
					"data":     map[string]interface{}{"value": "vault-secret"},
					"metadata": map[string]interface{}{"version": 3},
				},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"errors":[]}`))
		}
	}))
	defer srv.Close()

	cfg := DefaultVaultConfig(srv.URL)
	cfg.Token = "test-token"
	p, err := NewVaultProvider(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)

	s, err := p.GetSecret(context.Background(), "mealplan/jwt")
	require.NoError(t, err)
	assert.Equal(t, "vault-secret", s.Value)
	assert.Equal(t, "3", s.Version)

	_, err = p.GetSecret(context.Background(), "mealplan/missing")
	assert.ErrorIs(t, err, ErrSecretNotFound)
}

func TestVaultProvider_RequiresCredentials(t *testing.T) {
	cfg := DefaultVaultConfig("http://127.0.0.1:1")
	_, err := NewVaultProvider(context.Background(), cfg, zaptest.NewLogger(t))
	assert.Error(t, err)

	cfg.AuthMethod = "kubernetes"
	_, err = NewVaultProvider(context.Background(), cfg, zaptest.NewLogger(t))
	assert.ErrorContains(t, err, "unsupported auth method")
}

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "jwt"), []byte("from-file"), 0o600))
	p := NewLocalProvider(dir, zaptest.NewLogger(t))

	jwtSecret := "from-env"
	cronSecret := "keep"
	err := Resolve(context.Background(), p, []Binding{
		{Name: "JWT_SECRET", Path: "jwt", Target: &jwtSecret},
		{Name: "CRON_SECRET", Path: "", Target: &cronSecret},
	})
	require.NoError(t, err)
	assert.Equal(t, "from-file", jwtSecret)
	assert.Equal(t, "keep", cronSecret)

	err = Resolve(context.Background(), p, []Binding{{Name: "DATABASE_URL", Path: "db", Target: &cronSecret}})
	assert.ErrorIs(t, err, ErrSecretNotFound)
	assert.ErrorContains(t, err, "DATABASE_URL")
}
