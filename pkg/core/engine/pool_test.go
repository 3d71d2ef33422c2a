package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workflow-master/core/pkg/core/model"
	"github.com/workflow-master/core/pkg/storage"
)

// blockingStore只实现RunProcess路径会触碰到的FindProcessInstanceByID，
// 用一个channel卡住返回时机，让测试能在"运行中"这个窗口里观察注册表
type blockingStore struct {
	storage.ProcessStore
	release chan struct{}
}

func (b *blockingStore) FindProcessInstanceByID(ctx context.Context, id int64) (*model.ProcessInstance, error) {
	<-b.release
	return nil, errors.New("boom")
}

func TestPool_Handle_RegisteredDuringRunAndRemovedAfter(t *testing.T) {
	store := &blockingStore{release: make(chan struct{})}
	p := NewPool(Config{}, store, nil, nil, nil)

	done := make(chan struct{})
	go func() {
		_, _ = p.RunProcess(context.Background(), 42)
		close(done)
	}()

	require.Eventually(t, func() bool {
		_, ok := p.Handle(42)
		return ok
	}, time.Second, 5*time.Millisecond)

	handle, ok := p.Handle(42)
	require.True(t, ok)
	assert.Equal(t, int64(42), handle.ProcessInstanceID())
	assert.NotPanics(t, handle.RequestPause)
	assert.NotPanics(t, handle.RequestStop)

	close(store.release)
	<-done

	_, ok = p.Handle(42)
	assert.False(t, ok)
}

func TestPool_Handle_UnknownProcessInstanceReturnsFalse(t *testing.T) {
	p := NewPool(Config{}, nil, nil, nil, nil)
	_, ok := p.Handle(999)
	assert.False(t, ok)
}
