package identitysvc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartflows/shule/core/auth"
	testutil "github.com/smartflows/shule/tests"
)

func TestDevClientTokenRoundTrip(t *testing.T) {
	ctx := context.Background()
	client := NewDevClient(testutil.NewConfig())

	uid, err := client.CreateUser(ctx, "t1@test.com", "qwertyuiop", auth.RoleTeacher)
	require.NoError(t, err)
	require.NotEmpty(t, uid)

	token, err := client.CustomToken(ctx, uid)
	require.NoError(t, err)

	claims, err := client.VerifyToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, uid, claims.UID)
	assert.Equal(t, "t1@test.com", claims.Email)
	assert.Equal(t, auth.RoleTeacher, claims.Role)
}

func TestDevClientInvalidToken(t *testing.T) {
	ctx := context.Background()
	client := NewDevClient(testutil.NewConfig())

	for _, token := range []string{"", "not-a-jwt", "aaa.bbb.ccc"} {
		_, err := client.VerifyToken(ctx, token)
		assert.Equal(t, auth.ErrInvalidToken, err)
	}

	// token signed with a different key
	other := NewDevClient(testutil.NewConfig())
	other.secretKey = []byte("some-other-key")
	token, err := other.GenerateToken(auth.Claims{UID: "u1", Email: "x@test.com"})
	require.NoError(t, err)
	_, err = client.VerifyToken(ctx, token)
	assert.Equal(t, auth.ErrInvalidToken, err)
}

func TestDevClientDirectory(t *testing.T) {
	ctx := context.Background()
	client := NewDevClient(testutil.NewConfig())

	uid, err := client.CreateUser(ctx, "s1@test.com", "qwertyuiop", auth.RoleStudent)
	require.NoError(t, err)

	_, err = client.CreateUser(ctx, "s1@test.com", "qwertyuiop", auth.RoleStudent)
	assert.EqualError(t, err, "email already exists")

	require.NoError(t, client.SetRole(ctx, uid, auth.RoleAdmin))
	token, err := client.CustomToken(ctx, uid)
	require.NoError(t, err)
	claims, err := client.VerifyToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, auth.RoleAdmin, claims.Role)

	assert.Error(t, client.SetRole(ctx, "nope", auth.RoleAdmin))
	_, err = client.CustomToken(ctx, "nope")
	assert.Error(t, err)
}
