package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/rl1809/retail-pos/internal/core/domain"
)

const mysqlDupEntry = 1062

type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

// ---- items ----

func (m *MySQLAdapter) ListItems(ctx context.Context) ([]domain.Item, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, name, category, price, stock, created_at, updated_at
		FROM items ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	var items []domain.Item
	for rows.Next() {
		var it domain.Item
		if err := rows.Scan(&it.ID, &it.Name, &it.Category, &it.Price, &it.Stock, &it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (m *MySQLAdapter) GetItem(ctx context.Context, id string) (*domain.Item, error) {
	var it domain.Item
	err := m.db.QueryRowContext(ctx, `
		SELECT id, name, category, price, stock, created_at, updated_at
		FROM items WHERE id = ?`, id,
	).Scan(&it.ID, &it.Name, &it.Category, &it.Price, &it.Stock, &it.CreatedAt, &it.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: item %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("query item: %w", err)
	}
	return &it, nil
}

func (m *MySQLAdapter) CreateItem(ctx context.Context, it domain.Item) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO items (id, name, category, price, stock, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		it.ID, it.Name, it.Category, it.Price, it.Stock, it.CreatedAt, it.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert item: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) UpdateItem(ctx context.Context, it domain.Item) error {
	result, err := m.db.ExecContext(ctx, `
		UPDATE items SET name = ?, category = ?, price = ?, stock = ?, updated_at = ?
		WHERE id = ?`,
		it.Name, it.Category, it.Price, it.Stock, it.UpdatedAt, it.ID,
	)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("%w: item %s", domain.ErrNotFound, it.ID)
	}
	return nil
}

func (m *MySQLAdapter) DeleteItem(ctx context.Context, id string) error {
	result, err := m.db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("%w: item %s", domain.ErrNotFound, id)
	}
	return nil
}

// ---- orders ----

// CreateOrder inserts the order with its lines and decrements each line's
// stock, all in one transaction. The conditional UPDATE is the
// authoritative stock check: if any line would drive stock negative the
// whole commit rolls back.
func (m *MySQLAdapter) CreateOrder(ctx context.Context, order domain.Order) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, cashier_id, cashier_name, total, payment_type, amount_tendered, change_due, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		order.ID, order.CashierID, order.CashierName, order.Total, string(order.Payment),
		order.AmountTendered, order.Change, order.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for i, line := range order.Lines {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_lines (order_id, line_no, item_id, name, unit_price, quantity)
			VALUES (?, ?, ?, ?, ?, ?)`,
			order.ID, i, line.ItemID, line.Name, line.UnitPrice, line.Quantity,
		)
		if err != nil {
			return fmt.Errorf("insert order line: %w", err)
		}

		result, err := tx.ExecContext(ctx, `
			UPDATE items SET stock = stock - ?, updated_at = NOW()
			WHERE id = ? AND stock >= ?`,
			line.Quantity, line.ItemID, line.Quantity,
		)
		if err != nil {
			return fmt.Errorf("decrement stock: %w", err)
		}
		rows, _ := result.RowsAffected()
		if rows == 0 {
			return fmt.Errorf("%w: item %s", domain.ErrInsufficientStock, line.ItemID)
		}
	}

	return tx.Commit()
}

func (m *MySQLAdapter) ListOrders(ctx context.Context) ([]domain.Order, error) {
	return m.listOrders(ctx, `
		SELECT id, cashier_id, cashier_name, total, payment_type, amount_tendered, change_due, created_at
		FROM orders ORDER BY created_at DESC`)
}

func (m *MySQLAdapter) ListOrdersByCashier(ctx context.Context, cashierID string) ([]domain.Order, error) {
	return m.listOrders(ctx, `
		SELECT id, cashier_id, cashier_name, total, payment_type, amount_tendered, change_due, created_at
		FROM orders WHERE cashier_id = ? ORDER BY created_at DESC`, cashierID)
}

func (m *MySQLAdapter) listOrders(ctx context.Context, query string, args ...any) ([]domain.Order, error) {
	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		var o domain.Order
		var payment string
		if err := rows.Scan(&o.ID, &o.CashierID, &o.CashierName, &o.Total, &payment,
			&o.AmountTendered, &o.Change, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		o.Payment = domain.PaymentMethod(payment)
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range orders {
		lines, err := m.orderLines(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Lines = lines
	}
	return orders, nil
}

func (m *MySQLAdapter) orderLines(ctx context.Context, orderID string) ([]domain.OrderLine, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT item_id, name, unit_price, quantity
		FROM order_lines WHERE order_id = ? ORDER BY line_no`, orderID)
	if err != nil {
		return nil, fmt.Errorf("query order lines: %w", err)
	}
	defer rows.Close()

	var lines []domain.OrderLine
	for rows.Next() {
		var l domain.OrderLine
		if err := rows.Scan(&l.ItemID, &l.Name, &l.UnitPrice, &l.Quantity); err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// ---- accounts ----

func (m *MySQLAdapter) CreateAccount(ctx context.Context, acct domain.Account) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO accounts (id, email, username, password_hash, role, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		acct.ID, acct.Email, acct.Username, acct.PasswordHash, string(acct.Role), acct.CreatedAt,
	)
	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == mysqlDupEntry {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateAccount, me.Message)
	}
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	return m.getAccount(ctx, `
		SELECT id, email, username, password_hash, role, created_at
		FROM accounts WHERE id = ?`, id)
}

func (m *MySQLAdapter) GetAccountByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return m.getAccount(ctx, `
		SELECT id, email, username, password_hash, role, created_at
		FROM accounts WHERE email = ?`, email)
}

func (m *MySQLAdapter) getAccount(ctx context.Context, query string, arg any) (*domain.Account, error) {
	var acct domain.Account
	var role string
	err := m.db.QueryRowContext(ctx, query, arg).Scan(
		&acct.ID, &acct.Email, &acct.Username, &acct.PasswordHash, &role, &acct.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: account", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query account: %w", err)
	}
	acct.Role = domain.Role(role)
	return &acct, nil
}

func (m *MySQLAdapter) ListAccountsByRole(ctx context.Context, role domain.Role) ([]domain.Account, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, email, username, password_hash, role, created_at
		FROM accounts WHERE role = ? ORDER BY created_at`, string(role))
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}
	defer rows.Close()

	var accts []domain.Account
	for rows.Next() {
		var acct domain.Account
		var r string
		if err := rows.Scan(&acct.ID, &acct.Email, &acct.Username, &acct.PasswordHash, &r, &acct.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		acct.Role = domain.Role(r)
		accts = append(accts, acct)
	}
	return accts, rows.Err()
}

func (m *MySQLAdapter) DeleteAccount(ctx context.Context, id string) error {
	result, err := m.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("%w: account %s", domain.ErrNotFound, id)
	}
	return nil
}
