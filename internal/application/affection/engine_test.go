package affection

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sekaichat/internal/domain/entity"
	"sekaichat/internal/domain/repository"
	apperrors "sekaichat/pkg/errors"
)

// fakeAffectionRepo 进程内好感度存储
type fakeAffectionRepo struct {
	states map[string]*entity.AffectionState
}

func newFakeAffectionRepo() *fakeAffectionRepo {
	return &fakeAffectionRepo{states: make(map[string]*entity.AffectionState)}
}

func (r *fakeAffectionRepo) key(conversationID, characterID string) string {
	return conversationID + "/" + characterID
}

func (r *fakeAffectionRepo) Get(_ context.Context, conversationID, characterID string) (*entity.AffectionState, error) {
	state, ok := r.states[r.key(conversationID, characterID)]
	if !ok {
		return nil, nil
	}
	copied := *state
	return &copied, nil
}

func (r *fakeAffectionRepo) ListByConversation(_ context.Context, conversationID string) ([]*entity.AffectionState, error) {
	var out []*entity.AffectionState
	for _, s := range r.states {
		if s.ConversationID == conversationID {
			copied := *s
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeAffectionRepo) Create(_ context.Context, state *entity.AffectionState) error {
	copied := *state
	r.states[r.key(state.ConversationID, state.CharacterID)] = &copied
	return nil
}

func (r *fakeAffectionRepo) Update(_ context.Context, state *entity.AffectionState) error {
	copied := *state
	r.states[r.key(state.ConversationID, state.CharacterID)] = &copied
	return nil
}

func TestEngineEnsureStateLazyCreate(t *testing.T) {
	ctx := context.Background()
	repo := newFakeAffectionRepo()
	engine := NewEngine(repo)

	state, err := engine.EnsureState(ctx, "conv-1", "char-1")
	require.NoError(t, err)
	assert.Equal(t, 0, state.Level)
	assert.Equal(t, entity.AffectionTypeFriendship, state.Type)

	// 再次调用返回已有状态而不是重建
	_, err = engine.Adjust(ctx, "conv-1", "char-1", 5)
	require.NoError(t, err)
	state, err = engine.EnsureState(ctx, "conv-1", "char-1")
	require.NoError(t, err)
	assert.Equal(t, 5, state.Level)
}

func TestEngineAdjustClamping(t *testing.T) {
	ctx := context.Background()
	engine := NewEngine(newFakeAffectionRepo())

	state, err := engine.Adjust(ctx, "conv-1", "char-1", 250)
	require.NoError(t, err)
	assert.Equal(t, 100, state.Level)

	state, err = engine.Adjust(ctx, "conv-1", "char-1", -1000)
	require.NoError(t, err)
	assert.Equal(t, -100, state.Level)

	state, err = engine.Adjust(ctx, "conv-1", "char-1", 30)
	require.NoError(t, err)
	assert.Equal(t, -70, state.Level)
}

func TestEngineSetTypeLockedWhenHostile(t *testing.T) {
	ctx := context.Background()
	engine := NewEngine(newFakeAffectionRepo())

	_, err := engine.SetLevel(ctx, "conv-1", "char-1", -11)
	require.NoError(t, err)

	_, err = engine.SetType(ctx, "conv-1", "char-1", entity.AffectionTypeLove)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrAffectionLocked))

	// 失败的切换不改变已有类型
	state, err := engine.EnsureState(ctx, "conv-1", "char-1")
	require.NoError(t, err)
	assert.Equal(t, entity.AffectionTypeFriendship, state.Type)
}

func TestEngineSetTypeAtThreshold(t *testing.T) {
	ctx := context.Background()
	engine := NewEngine(newFakeAffectionRepo())

	// 恰好 -10 时未锁定
	_, err := engine.SetLevel(ctx, "conv-1", "char-1", -10)
	require.NoError(t, err)

	state, err := engine.SetType(ctx, "conv-1", "char-1", entity.AffectionTypeLove)
	require.NoError(t, err)
	assert.Equal(t, entity.AffectionTypeLove, state.Type)
}

func TestEngineSetTypeRejectsUnknown(t *testing.T) {
	ctx := context.Background()
	engine := NewEngine(newFakeAffectionRepo())

	_, err := engine.SetType(ctx, "conv-1", "char-1", entity.AffectionType("rivalry"))
	assert.Error(t, err)
}

func TestEnginePromptForMissingState(t *testing.T) {
	ctx := context.Background()
	repo := newFakeAffectionRepo()
	engine := NewEngine(repo)

	// 状态不存在时视为中立且不懒创建
	prompt, err := engine.PromptFor(ctx, "conv-1", "char-1", "小明")
	require.NoError(t, err)
	assert.Empty(t, prompt)
	assert.Empty(t, repo.states)
}

type fixedEstimator struct {
	delta int
	err   error
}

func (e fixedEstimator) EstimateAffectionDelta(context.Context, *DeltaEstimate) (int, error) {
	return e.delta, e.err
}

type fakeMessageLister struct {
	recent []*entity.Message
}

func (f *fakeMessageLister) ListRecent(_ context.Context, _ string, _ int) ([]*entity.Message, error) {
	return f.recent, nil
}

func (f *fakeMessageLister) Create(context.Context, *entity.Message) error { return nil }

func (f *fakeMessageLister) GetByID(context.Context, string) (*entity.Message, error) {
	return nil, nil
}

func (f *fakeMessageLister) ListByConversation(context.Context, string, repository.Pagination) (*repository.PagedResult[*entity.Message], error) {
	return nil, nil
}

func (f *fakeMessageLister) Delete(context.Context, string) error { return nil }

func (f *fakeMessageLister) AttachImages(context.Context, []*entity.GeneratedImage) error { return nil }

func (f *fakeMessageLister) ListImages(context.Context, string) ([]*entity.GeneratedImage, error) {
	return nil, nil
}

func TestAnalyzerCapsDelta(t *testing.T) {
	ctx := context.Background()
	repo := newFakeAffectionRepo()
	engine := NewEngine(repo)

	characterID := "char-1"
	messages := &fakeMessageLister{recent: []*entity.Message{
		{Role: entity.RoleUser, Content: "你好"},
		{Role: entity.RoleAssistant, CharacterID: &characterID, Content: "你好呀"},
	}}

	analyzer := NewAnalyzer(engine, messages, fixedEstimator{delta: 40}, 20, 5)
	state, err := analyzer.Analyze(ctx, "conv-1", characterID)
	require.NoError(t, err)
	assert.Equal(t, 5, state.Level)
}

func TestAnalyzerNoMessagesIsNoop(t *testing.T) {
	ctx := context.Background()
	engine := NewEngine(newFakeAffectionRepo())

	analyzer := NewAnalyzer(engine, &fakeMessageLister{}, fixedEstimator{delta: 5}, 20, 5)
	state, err := analyzer.Analyze(ctx, "conv-1", "char-1")
	require.NoError(t, err)
	assert.Equal(t, 0, state.Level)
}

func TestBuildTranscriptOrderAndRoles(t *testing.T) {
	characterID := "char-1"
	otherID := "char-2"
	// ListRecent 返回倒序，转写后应为正序
	recent := []*entity.Message{
		{Role: entity.RoleAssistant, CharacterID: &otherID, Content: "旁白"},
		{Role: entity.RoleAssistant, CharacterID: &characterID, Content: "晚上好"},
		{Role: entity.RoleUser, Content: "大家好"},
	}

	transcript := buildTranscript(recent, characterID)
	assert.Equal(t, "用户：大家好\n该角色：晚上好\n其他角色：旁白", transcript)
}
