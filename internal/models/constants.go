package models

// ItemType константы типов объявлений
const (
	ItemTypeLost  = "lost"
	ItemTypeFound = "found"
)

// ItemStatus константы статусов объявлений
const (
	ItemStatusPending  = "pending"
	ItemStatusApproved = "approved"
	ItemStatusRejected = "rejected"
	ItemStatusResolved = "resolved"
)

// Role константы ролей пользователей
const (
	RoleStudent    = "student"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
)

// AdminActionKind константы действий модерации
const (
	ActionApproveItem    = "approve_item"
	ActionRejectItem     = "reject_item"
	ActionDeleteItem     = "delete_item"
	ActionResolveItem    = "resolve_item"
	ActionBanUser        = "ban_user"
	ActionUnbanUser      = "unban_user"
	ActionChangeUserRole = "change_user_role"
)

// AdminActionTarget константы типов целей модерации
const (
	TargetTypeItem = "item"
	TargetTypeUser = "user"
)

// ConversationType константы типов переписок
const (
	ConversationTypeDirect  = "direct"
	ConversationTypeItem    = "item"
	ConversationTypeSupport = "support"
)

// ParticipantRole константы ролей участников переписки
const (
	ParticipantRoleAdmin  = "admin"
	ParticipantRoleMember = "member"
)

// NotificationType константы типов уведомлений
const (
	NotificationItemApproved    = "item_approved"
	NotificationItemRejected    = "item_rejected"
	NotificationItemResolved    = "item_resolved"
	NotificationAccountBanned   = "account_banned"
	NotificationAccountUnbanned = "account_unbanned"
	NotificationNewMessage      = "new_message"
)
