// Пакет rbac — логика определения эффективной роли пользователя.
// Реализует двухуровневую авторизацию: роли из IdP + локальные повышения
// (workflow одобрения). Правила: итоговая роль = max(роль из IdP, локальное
// повышение). Роль можно только повысить, не понизить.
package rbac

// Роли в порядке возрастания привилегий.
const (
	RoleViewer    = "viewer"
	RoleEditor    = "editor"
	RolePublisher = "publisher"
	RoleAdmin     = "admin"
)

// roleWeight — вес роли для сравнения.
// Чем выше вес, тем больше привилегий.
var roleWeight = map[string]int{
	RoleViewer:    1,
	RoleEditor:    2,
	RolePublisher: 3,
	RoleAdmin:     4,
}

// EffectiveRole вычисляет итоговую роль = max(idpRole, roleOverride).
// Если roleOverride == nil, возвращает idpRole.
// Роль можно только повысить, не понизить.
func EffectiveRole(idpRole string, roleOverride *string) string {
	if roleOverride == nil {
		return idpRole
	}
	return maxRole(idpRole, *roleOverride)
}

// maxRole возвращает роль с максимальными привилегиями из двух.
func maxRole(a, b string) string {
	wa := roleWeight[a]
	wb := roleWeight[b]
	if wa >= wb {
		return a
	}
	return b
}

// HighestRole возвращает максимальную роль из набора.
// Если набор пуст — возвращает пустую строку.
func HighestRole(roles []string) string {
	if len(roles) == 0 {
		return ""
	}
	highest := roles[0]
	for _, r := range roles[1:] {
		highest = maxRole(highest, r)
	}
	return highest
}

// GroupMapping — соответствие групп IdP ролям модуля.
type GroupMapping struct {
	// AdminGroups — группы, дающие роль admin
	AdminGroups []string
	// PublisherGroups — группы, дающие роль publisher
	PublisherGroups []string
	// EditorGroups — группы, дающие роль editor
	EditorGroups []string
	// ViewerGroups — группы, дающие роль viewer
	ViewerGroups []string
}

// MapGroupsToRole определяет роль пользователя на основе его групп IdP.
// Возвращает максимальную роль из всех совпадений.
// Если ни одна группа не совпала — возвращает пустую строку.
func MapGroupsToRole(groups []string, mapping GroupMapping) string {
	adminSet := toSet(mapping.AdminGroups)
	publisherSet := toSet(mapping.PublisherGroups)
	editorSet := toSet(mapping.EditorGroups)
	viewerSet := toSet(mapping.ViewerGroups)

	var roles []string
	for _, g := range groups {
		if adminSet[g] {
			roles = append(roles, RoleAdmin)
		}
		if publisherSet[g] {
			roles = append(roles, RolePublisher)
		}
		if editorSet[g] {
			roles = append(roles, RoleEditor)
		}
		if viewerSet[g] {
			roles = append(roles, RoleViewer)
		}
	}

	return HighestRole(roles)
}

// AtLeast возвращает true, если role имеет привилегии не ниже minimum.
func AtLeast(role, minimum string) bool {
	return roleWeight[role] >= roleWeight[minimum] && roleWeight[role] > 0
}

// IsValidRole проверяет, является ли строка допустимой ролью.
func IsValidRole(role string) bool {
	_, ok := roleWeight[role]
	return ok
}

// toSet конвертирует срез строк в map для быстрого поиска.
func toSet(items []string) map[string]bool {
	s := make(map[string]bool, len(items))
	for _, item := range items {
		s[item] = true
	}
	return s
}
