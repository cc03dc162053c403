package handlers

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"photowall/internal/index"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustStatImage(t *testing.T, env *testEnv, rel string) index.Image {
	t.Helper()
	info, err := os.Stat(filepath.Join(env.storage, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return index.Image{Path: rel, Size: info.Size(), ModTime: info.ModTime()}
}

func dialFeed(t *testing.T, env *testEnv) *websocket.Conn {
	t.Helper()
	server := httptest.NewServer(env.router())
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/feed"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFeedMessage(t *testing.T, conn *websocket.Conn) feedMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg feedMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestFeedSendsSnapshotFirst(t *testing.T) {
	env := newTestEnv(t)
	writeStoragePNG(t, env, "existing.png", 4, 4)
	syncIndex(t, env, 1)

	conn := dialFeed(t, env)

	msg := readFeedMessage(t, conn)
	require.Equal(t, "snapshot", msg.Type)
	require.Len(t, msg.Images, 1)
	assert.Equal(t, "existing.png", msg.Images[0].Path)
}

func TestFeedDeliversUpdates(t *testing.T) {
	env := newTestEnv(t)
	conn := dialFeed(t, env)

	msg := readFeedMessage(t, conn)
	require.Equal(t, "snapshot", msg.Type)
	assert.Empty(t, msg.Images)

	writeStoragePNG(t, env, "fresh.png", 4, 4)
	env.actor.NotifyChange()

	update := readFeedMessage(t, conn)
	require.Equal(t, "update", update.Type)
	require.Len(t, update.Additions, 1)
	assert.Equal(t, "fresh.png", update.Additions[0].Path)
	assert.Empty(t, update.Deletions)
}

func TestFeedSeesUploadImmediately(t *testing.T) {
	env := newTestEnv(t)
	conn := dialFeed(t, env)

	msg := readFeedMessage(t, conn)
	require.Equal(t, "snapshot", msg.Type)

	writeStoragePNG(t, env, "u.png", 4, 4)
	require.NoError(t, env.actor.Insert(context.Background(), mustStatImage(t, env, "u.png")))

	update := readFeedMessage(t, conn)
	require.Equal(t, "update", update.Type)
	require.Len(t, update.Additions, 1)
	assert.Equal(t, "u.png", update.Additions[0].Path)
}
