// Package affection 提供好感度引擎
// 好感度是一个有界整数 [-100, 100]，驱动生成回复的行为语气
package affection

import (
	"fmt"
	"strings"

	"sekaichat/internal/domain/entity"
)

// Clamp 将好感度裁剪到 [-100, 100]
func Clamp(level int) int {
	if level < entity.AffectionMinLevel {
		return entity.AffectionMinLevel
	}
	if level > entity.AffectionMaxLevel {
		return entity.AffectionMaxLevel
	}
	return level
}

// BehaviorTier 根据好感度返回注入生成请求的行为指令
// 档位边界是兼容性硬约定：
//
//	level < -50          敌对
//	-50 <= level < -20   冷淡挑剔
//	-20 <= level < -10   轻微反感
//	-10 <= level <= 10   中立（返回空串，不注入任何指令）
//	10 < level < 30      轻微好感（按类型分词）
//	30 <= level < 70     明显好感（按类型分词）
//	level >= 70          最高好感（按类型分词）
func BehaviorTier(level int, typ entity.AffectionType) string {
	switch {
	case level < -50:
		return "该角色对用户怀有强烈的敌意，语气冷酷，会拒绝配合甚至出言讽刺。"
	case level < -20:
		return "该角色对用户相当冷淡，言辞挑剔，经常直接表达不满。"
	case level < -10:
		return "该角色对用户略有反感，刻意保持距离，回应简短而疏远。"
	case level <= 10:
		// 中立区间对生成提示不可见
		return ""
	case level < 30:
		if typ == entity.AffectionTypeLove {
			return "该角色对用户萌生了一丝好感，偶尔会显得害羞并在意用户的反应。"
		}
		return "该角色把用户当作普通朋友，语气轻松友善。"
	case level < 70:
		if typ == entity.AffectionTypeLove {
			return "该角色已经喜欢上用户，言语温柔，会主动靠近并寻求用户的关注。"
		}
		return "该角色把用户视为值得信赖的好友，乐于分享想法并主动关心用户。"
	default:
		if typ == entity.AffectionTypeLove {
			return "该角色深爱着用户，情感炽热而真挚，把用户放在最优先的位置。"
		}
		return "该角色把用户当作最重要的挚友，毫无保留地信任并全力支持用户。"
	}
}

// DisplayLabel 返回仅用于界面展示的关系标签
// 负向三档、中立一档、正向按类型各三档，边界与 BehaviorTier 一致
func DisplayLabel(level int, typ entity.AffectionType) string {
	switch {
	case level < -50:
		return "敌对"
	case level < -20:
		return "冷淡"
	case level < -10:
		return "疏远"
	case level <= 10:
		return "中立"
	case level < 30:
		if typ == entity.AffectionTypeLove {
			return "心动"
		}
		return "友好"
	case level < 70:
		if typ == entity.AffectionTypeLove {
			return "喜欢"
		}
		return "亲近"
	default:
		if typ == entity.AffectionTypeLove {
			return "深爱"
		}
		return "挚友"
	}
}

// PromptBlock 组装传给生成服务的好感度上下文
// 中立区间返回空串：中立状态下不向生成服务发送任何好感度上下文
func PromptBlock(level int, typ entity.AffectionType, userNickname string) string {
	instruction := BehaviorTier(level, typ)
	if instruction == "" {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[好感度] 当前数值：%d。", level)
	if level >= 0 {
		nickname := strings.TrimSpace(userNickname)
		if nickname == "" {
			nickname = "用户"
		}
		fmt.Fprintf(&b, "与%s的关系：%s。", nickname, DisplayLabel(level, typ))
	}
	b.WriteString(instruction)
	return b.String()
}
