package autoreply

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sekaichat/internal/application/affection"
	"sekaichat/internal/application/cooldown"
	"sekaichat/internal/domain/entity"
	"sekaichat/internal/domain/repository"
)

type fakeConvRepo struct {
	conv *entity.Conversation
}

func (r *fakeConvRepo) Create(context.Context, *entity.Conversation) error { return nil }

func (r *fakeConvRepo) GetByID(_ context.Context, id string) (*entity.Conversation, error) {
	if r.conv != nil && r.conv.ID == id {
		return r.conv, nil
	}
	return nil, nil
}

func (r *fakeConvRepo) ListByOwner(context.Context, string, repository.Pagination) (*repository.PagedResult[*entity.Conversation], error) {
	return nil, nil
}

func (r *fakeConvRepo) Update(context.Context, *entity.Conversation) error { return nil }
func (r *fakeConvRepo) Delete(context.Context, string) error               { return nil }

func (r *fakeConvRepo) IncrementUserMessageCount(context.Context, string) (int, error) {
	return 0, nil
}

type fakePartRepo struct {
	parts []*entity.Participant
}

func (r *fakePartRepo) Create(context.Context, *entity.Participant) error { return nil }

func (r *fakePartRepo) Get(_ context.Context, conversationID, characterID string) (*entity.Participant, error) {
	for _, p := range r.parts {
		if p.ConversationID == conversationID && p.CharacterID == characterID {
			return p, nil
		}
	}
	return nil, nil
}

func (r *fakePartRepo) ListByConversation(context.Context, string) ([]*entity.Participant, error) {
	return r.parts, nil
}

func (r *fakePartRepo) Delete(context.Context, string, string) error { return nil }

type fakeCharRepo struct {
	chars map[string]*entity.Character
}

func (r *fakeCharRepo) Create(context.Context, *entity.Character) error { return nil }

func (r *fakeCharRepo) GetByID(_ context.Context, id string) (*entity.Character, error) {
	return r.chars[id], nil
}

func (r *fakeCharRepo) ListVisible(context.Context, string, repository.Pagination) (*repository.PagedResult[*entity.Character], error) {
	return nil, nil
}

func (r *fakeCharRepo) Update(context.Context, *entity.Character) error { return nil }
func (r *fakeCharRepo) Delete(context.Context, string) error            { return nil }

type fakeUserRepo struct{}

func (fakeUserRepo) Create(context.Context, *entity.User) error { return nil }
func (fakeUserRepo) GetByID(context.Context, string) (*entity.User, error) {
	return nil, nil
}
func (fakeUserRepo) GetByUsername(context.Context, string) (*entity.User, error) {
	return nil, nil
}
func (fakeUserRepo) Update(context.Context, *entity.User) error { return nil }

// fakeSelector 按调用次序返回预置的说话人序列，耗尽后返回无人发言
type fakeSelector struct {
	mu       sync.Mutex
	speakers []*Speaker
	calls    int
}

func (s *fakeSelector) SelectSpeaker(context.Context, string) (*Speaker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++
	if len(s.speakers) == 0 {
		return nil, nil
	}
	next := s.speakers[0]
	s.speakers = s.speakers[1:]
	return next, nil
}

type fakeGenerator struct {
	mu       sync.Mutex
	fn       func(ctx context.Context, req *GenerateRequest) (*Reply, error)
	requests []*GenerateRequest
}

func (g *fakeGenerator) GenerateReply(ctx context.Context, req *GenerateRequest) (*Reply, error) {
	g.mu.Lock()
	g.requests = append(g.requests, req)
	fn := g.fn
	g.mu.Unlock()
	return fn(ctx, req)
}

func (g *fakeGenerator) recorded() []*GenerateRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]*GenerateRequest(nil), g.requests...)
}

type fakeStore struct {
	mu       sync.Mutex
	messages []*entity.Message
	images   []*entity.GeneratedImage
}

func (s *fakeStore) ApplyMessage(_ context.Context, msg *entity.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
	return nil
}

func (s *fakeStore) ApplyImages(_ context.Context, images []*entity.GeneratedImage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.images = append(s.images, images...)
	return nil
}

func (s *fakeStore) applied() []*entity.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*entity.Message(nil), s.messages...)
}

func (s *fakeStore) appliedImages() []*entity.GeneratedImage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*entity.GeneratedImage(nil), s.images...)
}

type fixture struct {
	controller *Controller
	conv       *entity.Conversation
	selector   *fakeSelector
	generator  *fakeGenerator
	store      *fakeStore
	gate       *cooldown.Gate
}

func newFixture(t *testing.T, speakers []*Speaker, gen func(ctx context.Context, req *GenerateRequest) (*Reply, error)) *fixture {
	t.Helper()

	conv := entity.NewConversation("owner-1", "测试会话")
	conv.ID = "conv-1"

	char := &entity.Character{ID: "char-1", Name: "小樱", Type: entity.CharacterTypeUser}

	selector := &fakeSelector{speakers: speakers}
	generator := &fakeGenerator{fn: gen}
	store := &fakeStore{}
	gate := cooldown.NewGate(cooldown.NewMemoryStore(), 20*time.Second)

	controller := NewController(
		Options{MaxSequenceLimit: 5, IterationDelay: 0},
		selector,
		generator,
		store,
		gate,
		NewSessionManager(),
		&fakeConvRepo{conv: conv},
		&fakePartRepo{parts: []*entity.Participant{
			entity.NewParticipant(conv.ID, char.ID, char.Type),
		}},
		&fakeCharRepo{chars: map[string]*entity.Character{char.ID: char}},
		fakeUserRepo{},
		affection.NewEngine(nil),
	)

	return &fixture{
		controller: controller,
		conv:       conv,
		selector:   selector,
		generator:  generator,
		store:      store,
		gate:       gate,
	}
}

func waitIdle(t *testing.T, c *Controller, conversationID string) {
	t.Helper()
	require.Eventually(t, func() bool {
		return c.State(conversationID) == RunStateIdle
	}, 5*time.Second, 5*time.Millisecond)
}

func speakerN(n int) []*Speaker {
	out := make([]*Speaker, n)
	for i := range out {
		out[i] = &Speaker{ID: "char-1", Name: "小樱"}
	}
	return out
}

func echoReply(_ context.Context, req *GenerateRequest) (*Reply, error) {
	return &Reply{Content: "回复内容"}, nil
}

func TestTriggerRunsContinuousSequence(t *testing.T) {
	f := newFixture(t, speakerN(5), echoReply)
	f.conv.ContinuousResponseEnabled = true
	f.conv.MaxAutoCallSequence = 3

	started, err := f.controller.Trigger(context.Background(), f.conv.ID)
	require.NoError(t, err)
	assert.True(t, started)

	waitIdle(t, f.controller, f.conv.ID)

	msgs := f.store.applied()
	require.Len(t, msgs, 3)
	for i, msg := range msgs {
		assert.Equal(t, entity.RoleAssistant, msg.Role)
		assert.Equal(t, i+1, msg.AutoCallSequence)
	}

	reqs := f.generator.recorded()
	require.Len(t, reqs, 3)
	assert.Equal(t, 1, reqs[0].AutoCallCount)
	assert.Equal(t, 3, reqs[2].AutoCallCount)
}

func TestTriggerSingleRoundWithoutContinuous(t *testing.T) {
	f := newFixture(t, speakerN(5), echoReply)
	f.conv.ContinuousResponseEnabled = false
	f.conv.MaxAutoCallSequence = 3

	started, err := f.controller.Trigger(context.Background(), f.conv.ID)
	require.NoError(t, err)
	assert.True(t, started)

	waitIdle(t, f.controller, f.conv.ID)
	assert.Len(t, f.store.applied(), 1)
}

func TestTriggerClampsSequenceToLimit(t *testing.T) {
	f := newFixture(t, speakerN(20), echoReply)
	f.conv.ContinuousResponseEnabled = true
	f.conv.MaxAutoCallSequence = 10

	_, err := f.controller.Trigger(context.Background(), f.conv.ID)
	require.NoError(t, err)
	waitIdle(t, f.controller, f.conv.ID)

	assert.Len(t, f.store.applied(), 5)
}

func TestTriggerDisabledConversation(t *testing.T) {
	f := newFixture(t, speakerN(1), echoReply)
	f.conv.AutoReplyEnabled = false

	started, err := f.controller.Trigger(context.Background(), f.conv.ID)
	require.NoError(t, err)
	assert.False(t, started)
	assert.Empty(t, f.store.applied())
}

func TestTriggerUnknownConversation(t *testing.T) {
	f := newFixture(t, speakerN(1), echoReply)

	_, err := f.controller.Trigger(context.Background(), "missing")
	assert.Error(t, err)
}

func TestRunEndsWhenNoSpeaker(t *testing.T) {
	// 第二轮选择器返回无人发言，运行正常结束
	f := newFixture(t, speakerN(1), echoReply)
	f.conv.ContinuousResponseEnabled = true
	f.conv.MaxAutoCallSequence = 3

	_, err := f.controller.Trigger(context.Background(), f.conv.ID)
	require.NoError(t, err)
	waitIdle(t, f.controller, f.conv.ID)

	msgs := f.store.applied()
	require.Len(t, msgs, 1)
	assert.Equal(t, entity.RoleAssistant, msgs[0].Role)
}

func TestCancelDuringGenerationDiscardsResult(t *testing.T) {
	generating := make(chan struct{})
	f := newFixture(t, speakerN(3), nil)
	f.generator.fn = func(ctx context.Context, _ *GenerateRequest) (*Reply, error) {
		close(generating)
		<-ctx.Done()
		return nil, ctx.Err()
	}

	_, err := f.controller.Trigger(context.Background(), f.conv.ID)
	require.NoError(t, err)

	<-generating
	assert.True(t, f.controller.Cancel(f.conv.ID))
	waitIdle(t, f.controller, f.conv.ID)

	// 中止静默结束：没有回复，也没有失败提示
	assert.Empty(t, f.store.applied())
}

func TestReentrancyGuard(t *testing.T) {
	generating := make(chan struct{})
	release := make(chan struct{})
	f := newFixture(t, speakerN(3), nil)
	f.generator.fn = func(ctx context.Context, _ *GenerateRequest) (*Reply, error) {
		close(generating)
		select {
		case <-release:
			return &Reply{Content: "回复内容"}, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	started, err := f.controller.Trigger(context.Background(), f.conv.ID)
	require.NoError(t, err)
	assert.True(t, started)

	<-generating
	// 运行进行中再次触发是 no-op
	started, err = f.controller.Trigger(context.Background(), f.conv.ID)
	require.NoError(t, err)
	assert.False(t, started)

	close(release)
	waitIdle(t, f.controller, f.conv.ID)
	assert.Len(t, f.store.applied(), 1)
}

func TestGeneratorFailureSurfacesSingleNotice(t *testing.T) {
	f := newFixture(t, speakerN(3), nil)
	f.generator.fn = func(context.Context, *GenerateRequest) (*Reply, error) {
		return nil, errors.New("provider exploded")
	}
	f.conv.ContinuousResponseEnabled = true
	f.conv.MaxAutoCallSequence = 3

	_, err := f.controller.Trigger(context.Background(), f.conv.ID)
	require.NoError(t, err)
	waitIdle(t, f.controller, f.conv.ID)

	// 失败结束整个运行，只追加一条系统提示，不重试
	msgs := f.store.applied()
	require.Len(t, msgs, 1)
	assert.Equal(t, entity.RoleSystem, msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "回复生成失败")
}

func TestEmptyReplyContinuesRun(t *testing.T) {
	var calls int
	var mu sync.Mutex
	f := newFixture(t, speakerN(3), nil)
	f.generator.fn = func(context.Context, *GenerateRequest) (*Reply, error) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls == 1 {
			return &Reply{Content: "   "}, nil
		}
		return &Reply{Content: "回复内容"}, nil
	}
	f.conv.ContinuousResponseEnabled = true
	f.conv.MaxAutoCallSequence = 2

	_, err := f.controller.Trigger(context.Background(), f.conv.ID)
	require.NoError(t, err)
	waitIdle(t, f.controller, f.conv.ID)

	// 空产出不是错误，运行继续到第二轮
	msgs := f.store.applied()
	require.Len(t, msgs, 1)
	assert.Equal(t, 2, msgs[0].AutoCallSequence)
}

func TestImageGenerationRespectsCooldown(t *testing.T) {
	f := newFixture(t, speakerN(5), nil)
	f.generator.fn = func(_ context.Context, req *GenerateRequest) (*Reply, error) {
		reply := &Reply{Content: "回复内容"}
		if req.ImageGenerationEnabled {
			reply.Images = []ImageRef{{ID: "img-1", URL: "https://img.example/1.png"}}
		}
		return reply, nil
	}
	f.conv.ImageGenerationEnabled = true
	char, _ := f.controller.characters.GetByID(context.Background(), "char-1")
	char.SupportsImageGeneration = true

	// 第一次运行：不在冷却中，图片生成并挂载
	_, err := f.controller.Trigger(context.Background(), f.conv.ID)
	require.NoError(t, err)
	waitIdle(t, f.controller, f.conv.ID)

	require.Len(t, f.store.appliedImages(), 1)

	// 第二次运行：冷却命中，请求中只携带剩余秒数
	_, err = f.controller.Trigger(context.Background(), f.conv.ID)
	require.NoError(t, err)
	waitIdle(t, f.controller, f.conv.ID)

	reqs := f.generator.recorded()
	require.Len(t, reqs, 2)
	assert.True(t, reqs[0].ImageGenerationEnabled)
	assert.False(t, reqs[1].ImageGenerationEnabled)
	assert.Greater(t, reqs[1].ImageCooldownSeconds, 0)
	// 图片没有第二次挂载
	assert.Len(t, f.store.appliedImages(), 1)
}

func TestInvokeManualCall(t *testing.T) {
	f := newFixture(t, nil, echoReply)

	msg, err := f.controller.Invoke(context.Background(), f.conv.ID, "char-1")
	require.NoError(t, err)
	require.NotNil(t, msg)
	assert.Equal(t, entity.RoleAssistant, msg.Role)
	// 手动调用的位次为 0
	assert.Equal(t, 0, msg.AutoCallSequence)
}

func TestInvokeRequiresParticipant(t *testing.T) {
	f := newFixture(t, nil, echoReply)

	_, err := f.controller.Invoke(context.Background(), f.conv.ID, "char-999")
	assert.Error(t, err)
}

func TestCancelWithoutRun(t *testing.T) {
	f := newFixture(t, nil, echoReply)
	assert.False(t, f.controller.Cancel(f.conv.ID))
	assert.Equal(t, RunStateIdle, f.controller.State(f.conv.ID))
}
