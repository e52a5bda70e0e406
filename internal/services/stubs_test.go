package services

import (
	"sync"
	"time"

	"cafe_order_backend/internal/models"
	"cafe_order_backend/internal/repositories"
)

// In-memory repository stubs backing the service tests. They mirror the
// repository contracts, including the guarded stock adjustment and the
// sentinel errors the services branch on.

type stubMenuRepo struct {
	mu     sync.Mutex
	nextID int64
	items  map[int64]*models.MenuItem
}

func newStubMenuRepo() *stubMenuRepo {
	return &stubMenuRepo{items: make(map[int64]*models.MenuItem)}
}

func (r *stubMenuRepo) add(item models.MenuItem) *models.MenuItem {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	item.ID = r.nextID
	r.items[item.ID] = &item
	return &item
}

func (r *stubMenuRepo) CreateMenuItem(item *models.MenuItem) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.items {
		if existing.Name == item.Name {
			return 0, repositories.ErrDuplicateKey
		}
	}
	r.nextID++
	item.ID = r.nextID
	stored := *item
	r.items[item.ID] = &stored
	return item.ID, nil
}

func (r *stubMenuRepo) GetMenuItemByID(menuID int64) (*models.MenuItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[menuID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *item
	return &copied, nil
}

func (r *stubMenuRepo) GetMenuItems(filters models.MenuFilters) ([]models.MenuItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.MenuItem
	for _, item := range r.items {
		if filters.Category != nil && item.Category != *filters.Category {
			continue
		}
		if filters.Available != nil && item.IsAvailable != *filters.Available {
			continue
		}
		out = append(out, *item)
	}
	return out, nil
}

func (r *stubMenuRepo) UpdateMenuItem(item *models.MenuItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[item.ID]; !ok {
		return repositories.ErrNotFound
	}
	stored := *item
	r.items[item.ID] = &stored
	return nil
}

func (r *stubMenuRepo) DeleteMenuItem(menuID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[menuID]; !ok {
		return 0, repositories.ErrNotFound
	}
	delete(r.items, menuID)
	return 1, nil
}

func (r *stubMenuRepo) ReadStock(menuID int64) (*int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[menuID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	if item.StockQuantity == nil {
		return nil, nil
	}
	current := *item.StockQuantity
	return &current, nil
}

func (r *stubMenuRepo) AdjustStock(menuID int64, delta int) (*models.StockAdjustment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[menuID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	if item.StockQuantity == nil {
		return nil, repositories.ErrStockNotTracked
	}
	newStock := *item.StockQuantity + delta
	if newStock < 0 {
		return nil, repositories.ErrStockInsufficient
	}
	old := *item.StockQuantity
	item.StockQuantity = &newStock
	return &models.StockAdjustment{MenuID: menuID, OldStock: old, NewStock: newStock}, nil
}

type stubOrderRepo struct {
	mu     sync.Mutex
	nextID int64
	orders map[int64]*models.Order
	items  map[int64][]models.OrderItem
	menus  *stubMenuRepo
}

func newStubOrderRepo(menus *stubMenuRepo) *stubOrderRepo {
	return &stubOrderRepo{
		orders: make(map[int64]*models.Order),
		items:  make(map[int64][]models.OrderItem),
		menus:  menus,
	}
}

func (r *stubOrderRepo) CreateOrder(order *models.Order) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	order.ID = r.nextID
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}
	order.UpdatedAt = order.CreatedAt
	stored := *order
	r.orders[order.ID] = &stored
	return order.ID, nil
}

func (r *stubOrderRepo) GetOrderByID(orderID int64) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[orderID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *order
	return &copied, nil
}

func (r *stubOrderRepo) GetOrders(filters models.OrderFilters) ([]models.Order, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Order
	for _, order := range r.orders {
		if filters.TableID != nil && order.TableID != *filters.TableID {
			continue
		}
		if filters.Status != nil && order.Status != *filters.Status {
			continue
		}
		excluded := false
		for _, not := range filters.NotStatuses {
			if order.Status == not {
				excluded = true
				break
			}
		}
		if excluded {
			continue
		}
		if filters.Date != nil && order.CreatedAt.Format("2006-01-02") != *filters.Date {
			continue
		}
		out = append(out, *order)
	}
	return out, len(out), nil
}

func (r *stubOrderRepo) UpdateOrderStatus(orderID int64, newStatus string, updatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[orderID]
	if !ok {
		return repositories.ErrNotFound
	}
	order.Status = newStatus
	order.UpdatedAt = updatedAt
	return nil
}

func (r *stubOrderRepo) CountActiveOrdersByTable(tableID int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, order := range r.orders {
		if order.TableID != tableID {
			continue
		}
		if order.Status == StatusDelivered || order.Status == StatusCancelled {
			continue
		}
		count++
	}
	return count, nil
}

func (r *stubOrderRepo) GetOrphanOrderIDs(olderThan time.Time) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []int64
	for id, order := range r.orders {
		if order.Status != StatusPending {
			continue
		}
		if len(r.items[id]) > 0 {
			continue
		}
		if order.CreatedAt.After(olderThan) {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *stubOrderRepo) CreateOrderItems(items []models.OrderItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, item := range items {
		r.items[item.OrderID] = append(r.items[item.OrderID], item)
	}
	return nil
}

func (r *stubOrderRepo) GetOrderItemsByOrderID(orderID int64) ([]models.OrderItem, error) {
	r.mu.Lock()
	items := append([]models.OrderItem(nil), r.items[orderID]...)
	r.mu.Unlock()
	return r.attachMenus(items), nil
}

func (r *stubOrderRepo) GetOrderItemsForOrders(orderIDs []int64) ([]models.OrderItem, error) {
	r.mu.Lock()
	var items []models.OrderItem
	for _, id := range orderIDs {
		items = append(items, r.items[id]...)
	}
	r.mu.Unlock()
	return r.attachMenus(items), nil
}

// attachMenus mirrors the LEFT JOIN in the real repository: items whose menu
// row is gone keep a nil MenuItem.
func (r *stubOrderRepo) attachMenus(items []models.OrderItem) []models.OrderItem {
	if r.menus == nil {
		return items
	}
	for i := range items {
		if menu, err := r.menus.GetMenuItemByID(items[i].MenuID); err == nil {
			items[i].MenuItem = menu
		}
	}
	return items
}

type stubMovementRepo struct {
	mu        sync.Mutex
	movements []models.StockMovement
}

func newStubMovementRepo() *stubMovementRepo {
	return &stubMovementRepo{}
}

func (r *stubMovementRepo) CreateMovement(movement *models.StockMovement) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	movement.ID = int64(len(r.movements) + 1)
	movement.CreatedAt = time.Now()
	r.movements = append(r.movements, *movement)
	return movement.ID, nil
}

func (r *stubMovementRepo) GetMovements(limit int) ([]models.StockMovement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := append([]models.StockMovement(nil), r.movements...)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *stubMovementRepo) byReason(reason string) []models.StockMovement {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.StockMovement
	for _, m := range r.movements {
		if m.Reason == reason {
			out = append(out, m)
		}
	}
	return out
}

type stubSettingRepo struct {
	mu       sync.Mutex
	settings map[string]*models.ApplicationSetting
}

func newStubSettingRepo() *stubSettingRepo {
	return &stubSettingRepo{settings: make(map[string]*models.ApplicationSetting)}
}

func (r *stubSettingRepo) set(key, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v := value
	r.settings[key] = &models.ApplicationSetting{SettingKey: key, SettingValue: &v}
}

func (r *stubSettingRepo) GetSettings() ([]models.ApplicationSetting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.ApplicationSetting
	for _, s := range r.settings {
		out = append(out, *s)
	}
	return out, nil
}

func (r *stubSettingRepo) GetSettingByKey(key string) (*models.ApplicationSetting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.settings[key]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *s
	return &copied, nil
}

func (r *stubSettingRepo) UpsertSetting(setting *models.ApplicationSetting) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *setting
	r.settings[setting.SettingKey] = &stored
	return nil
}

func (r *stubSettingRepo) DeleteSettingByKey(key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.settings[key]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.settings, key)
	return nil
}

type stubTableRepo struct {
	mu     sync.Mutex
	nextID int64
	tables map[int64]*models.Table
}

func newStubTableRepo() *stubTableRepo {
	return &stubTableRepo{tables: make(map[int64]*models.Table)}
}

func (r *stubTableRepo) CreateTable(table *models.Table) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.tables {
		if existing.TableNumber == table.TableNumber {
			return 0, repositories.ErrDuplicateKey
		}
	}
	r.nextID++
	table.ID = r.nextID
	stored := *table
	r.tables[table.ID] = &stored
	return table.ID, nil
}

func (r *stubTableRepo) GetTableByID(tableID int64) (*models.Table, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	table, ok := r.tables[tableID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *table
	return &copied, nil
}

func (r *stubTableRepo) GetTableByQRToken(token string) (*models.Table, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, table := range r.tables {
		if table.QRToken == token {
			copied := *table
			return &copied, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *stubTableRepo) GetTables(filters models.TableFilters) ([]models.Table, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Table
	for _, table := range r.tables {
		if filters.Active != nil && table.IsActive != *filters.Active {
			continue
		}
		out = append(out, *table)
	}
	return out, nil
}

func (r *stubTableRepo) UpdateTable(table *models.Table) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tables[table.ID]; !ok {
		return repositories.ErrNotFound
	}
	stored := *table
	r.tables[table.ID] = &stored
	return nil
}

func (r *stubTableRepo) DeleteTable(tableID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tables[tableID]; !ok {
		return 0, repositories.ErrNotFound
	}
	delete(r.tables, tableID)
	return 1, nil
}

type stubAuthRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*models.User
	tokens map[string]*models.RefreshToken
}

func newStubAuthRepo() *stubAuthRepo {
	return &stubAuthRepo{
		users:  make(map[int64]*models.User),
		tokens: make(map[string]*models.RefreshToken),
	}
}

func (r *stubAuthRepo) CreateUser(user *models.User) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Username == user.Username {
			return 0, repositories.ErrDuplicateKey
		}
	}
	r.nextID++
	user.ID = r.nextID
	stored := *user
	r.users[user.ID] = &stored
	return user.ID, nil
}

func (r *stubAuthRepo) GetUserByUsername(username string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Username == username {
			copied := *user
			return &copied, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *stubAuthRepo) GetUserByID(userID int64) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[userID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *stubAuthRepo) StoreRefreshToken(token *models.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *token
	r.tokens[token.Token] = &stored
	return nil
}

func (r *stubAuthRepo) GetRefreshToken(token string) (*models.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tokens[token]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *stored
	return &copied, nil
}

func (r *stubAuthRepo) DeleteRefreshTokensForUser(userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, token := range r.tokens {
		if token.UserID == userID {
			delete(r.tokens, key)
		}
	}
	return nil
}
