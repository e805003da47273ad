package affection

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"sekaichat/internal/domain/entity"
)

func TestClamp(t *testing.T) {
	assert.Equal(t, -100, Clamp(-101))
	assert.Equal(t, -100, Clamp(-100))
	assert.Equal(t, 0, Clamp(0))
	assert.Equal(t, 100, Clamp(100))
	assert.Equal(t, 100, Clamp(101))
	assert.Equal(t, 100, Clamp(1000000))
}

func TestBehaviorTierNeutralIsEmpty(t *testing.T) {
	for _, level := range []int{-10, -5, 0, 5, 10} {
		assert.Empty(t, BehaviorTier(level, entity.AffectionTypeFriendship), "level %d", level)
		assert.Empty(t, BehaviorTier(level, entity.AffectionTypeLove), "level %d", level)
	}
}

func TestBehaviorTierBoundaries(t *testing.T) {
	friendship := entity.AffectionTypeFriendship

	// 负向档位不区分类型
	assert.Equal(t, BehaviorTier(-51, friendship), BehaviorTier(-51, entity.AffectionTypeLove))

	// -51 与 -50 分属不同档位
	assert.NotEqual(t, BehaviorTier(-51, friendship), BehaviorTier(-50, friendship))
	// -21 与 -20 分属不同档位
	assert.NotEqual(t, BehaviorTier(-21, friendship), BehaviorTier(-20, friendship))
	// -11 有指令，-10 进入中立
	assert.NotEmpty(t, BehaviorTier(-11, friendship))
	assert.Empty(t, BehaviorTier(-10, friendship))
	// 10 中立，11 进入正向第一档
	assert.Empty(t, BehaviorTier(10, friendship))
	assert.NotEmpty(t, BehaviorTier(11, friendship))
	// 29 与 30 分属不同档位
	assert.NotEqual(t, BehaviorTier(29, friendship), BehaviorTier(30, friendship))
	// 69 与 70 分属不同档位
	assert.NotEqual(t, BehaviorTier(69, friendship), BehaviorTier(70, friendship))
	// 70 与 100 同档
	assert.Equal(t, BehaviorTier(70, friendship), BehaviorTier(100, friendship))
}

func TestBehaviorTierPositiveSplitsByType(t *testing.T) {
	for _, level := range []int{11, 30, 70} {
		assert.NotEqual(t,
			BehaviorTier(level, entity.AffectionTypeFriendship),
			BehaviorTier(level, entity.AffectionTypeLove),
			"level %d", level)
	}
}

func TestDisplayLabel(t *testing.T) {
	assert.Equal(t, "敌对", DisplayLabel(-70, entity.AffectionTypeFriendship))
	assert.Equal(t, "冷淡", DisplayLabel(-30, entity.AffectionTypeFriendship))
	assert.Equal(t, "疏远", DisplayLabel(-15, entity.AffectionTypeFriendship))
	assert.Equal(t, "中立", DisplayLabel(0, entity.AffectionTypeFriendship))
	assert.Equal(t, "友好", DisplayLabel(20, entity.AffectionTypeFriendship))
	assert.Equal(t, "心动", DisplayLabel(20, entity.AffectionTypeLove))
	assert.Equal(t, "亲近", DisplayLabel(50, entity.AffectionTypeFriendship))
	assert.Equal(t, "喜欢", DisplayLabel(50, entity.AffectionTypeLove))
	assert.Equal(t, "挚友", DisplayLabel(90, entity.AffectionTypeFriendship))
	assert.Equal(t, "深爱", DisplayLabel(90, entity.AffectionTypeLove))
}

func TestPromptBlockNeutralIsEmpty(t *testing.T) {
	assert.Empty(t, PromptBlock(0, entity.AffectionTypeFriendship, "小明"))
	assert.Empty(t, PromptBlock(-10, entity.AffectionTypeLove, "小明"))
	assert.Empty(t, PromptBlock(10, entity.AffectionTypeLove, "小明"))
}

func TestPromptBlockContent(t *testing.T) {
	block := PromptBlock(50, entity.AffectionTypeLove, "小明")
	assert.Contains(t, block, "50")
	assert.Contains(t, block, "小明")
	assert.Contains(t, block, "喜欢")

	// 负向档位不展示关系标签
	block = PromptBlock(-30, entity.AffectionTypeFriendship, "小明")
	assert.Contains(t, block, "-30")
	assert.NotContains(t, block, "小明")
	assert.NotContains(t, block, "关系：")
}

func TestPromptBlockDefaultNickname(t *testing.T) {
	block := PromptBlock(20, entity.AffectionTypeFriendship, "")
	assert.Contains(t, block, "用户")

	block = PromptBlock(20, entity.AffectionTypeFriendship, "   ")
	assert.Contains(t, block, "用户")
}
