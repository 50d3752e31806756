package secrets

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	smtypes "github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/kevin07696/authorizenet-gateway/internal/adapters/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSecretsManager struct {
	values     map[string]string
	getCalls   int
	createTags []smtypes.Tag
}

func (f *fakeSecretsManager) GetSecretValue(_ context.Context, in *secretsmanager.GetSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	f.getCalls++
	v, ok := f.values[aws.ToString(in.SecretId)]
	if !ok {
		return nil, &smtypes.ResourceNotFoundException{Message: aws.String("missing")}
	}
	return &secretsmanager.GetSecretValueOutput{SecretString: aws.String(v), VersionId: aws.String("ver-1")}, nil
}

func (f *fakeSecretsManager) PutSecretValue(_ context.Context, in *secretsmanager.PutSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.PutSecretValueOutput, error) {
	id := aws.ToString(in.SecretId)
	if _, ok := f.values[id]; !ok {
		return nil, &smtypes.ResourceNotFoundException{Message: aws.String("missing")}
	}
	f.values[id] = aws.ToString(in.SecretString)
	return &secretsmanager.PutSecretValueOutput{VersionId: aws.String("ver-2")}, nil
}

func (f *fakeSecretsManager) CreateSecret(_ context.Context, in *secretsmanager.CreateSecretInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.CreateSecretOutput, error) {
	f.values[aws.ToString(in.Name)] = aws.ToString(in.SecretString)
	f.createTags = in.Tags
	return &secretsmanager.CreateSecretOutput{VersionId: aws.String("ver-1")}, nil
}

func (f *fakeSecretsManager) DeleteSecret(_ context.Context, in *secretsmanager.DeleteSecretInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.DeleteSecretOutput, error) {
	id := aws.ToString(in.SecretId)
	if _, ok := f.values[id]; !ok {
		return nil, &smtypes.ResourceNotFoundException{Message: aws.String("missing")}
	}
	delete(f.values, id)
	return &secretsmanager.DeleteSecretOutput{}, nil
}

func TestAWSAdapter_PutCreatesThenUpdates(t *testing.T) {
	ctx := context.Background()
	fake := &fakeSecretsManager{values: map[string]string{}}
	a := newAWSSecretsManagerAdapter(fake, DefaultAWSSecretsManagerConfig("us-east-1"), zap.NewNop())

	version, err := a.PutSecret(ctx, "gw/key", "first", map[string]string{"gateway_id": "gw"})
	require.NoError(t, err)
	assert.Equal(t, "ver-1", version)
	require.Len(t, fake.createTags, 1)

	version, err = a.PutSecret(ctx, "gw/key", "second", nil)
	require.NoError(t, err)
	assert.Equal(t, "ver-2", version)
	assert.Equal(t, "second", fake.values["gw/key"])
}

func TestAWSAdapter_GetIsCached(t *testing.T) {
	ctx := context.Background()
	fake := &fakeSecretsManager{values: map[string]string{"gw/key": "k"}}
	a := newAWSSecretsManagerAdapter(fake, DefaultAWSSecretsManagerConfig("us-east-1"), zap.NewNop())

	for i := 0; i < 3; i++ {
		secret, err := a.GetSecret(ctx, "gw/key")
		require.NoError(t, err)
		assert.Equal(t, "k", secret.Value)
	}
	assert.Equal(t, 1, fake.getCalls)

	_, err := a.PutSecret(ctx, "gw/key", "k2", nil)
	require.NoError(t, err)
	secret, err := a.GetSecret(ctx, "gw/key")
	require.NoError(t, err)
	assert.Equal(t, "k2", secret.Value)
}

func TestAWSAdapter_NotFound(t *testing.T) {
	ctx := context.Background()
	a := newAWSSecretsManagerAdapter(&fakeSecretsManager{values: map[string]string{}},
		DefaultAWSSecretsManagerConfig("us-east-1"), zap.NewNop())

	_, err := a.GetSecret(ctx, "missing")
	assert.True(t, errors.Is(err, ports.ErrSecretNotFound))

	err = a.DeleteSecret(ctx, "missing")
	assert.True(t, errors.Is(err, ports.ErrSecretNotFound))
}
