package database

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		telegram_id BIGINT NOT NULL,
		first_name VARCHAR(255) NOT NULL DEFAULT '',
		last_name VARCHAR(255) NOT NULL DEFAULT '',
		username VARCHAR(255) NOT NULL DEFAULT '',
		language_code VARCHAR(16) NOT NULL DEFAULT '',
		photo_url VARCHAR(1024) NOT NULL DEFAULT '',
		is_active TINYINT(1) NOT NULL DEFAULT 1,
		is_premium TINYINT(1) NOT NULL DEFAULT 0,
		preferences JSON NULL,
		cart_updated_at DATETIME(6) NULL,
		last_active_at DATETIME(6) NOT NULL,
		total_orders INT NOT NULL DEFAULT 0,
		total_spent DECIMAL(14,2) NOT NULL DEFAULT 0,
		created_at DATETIME(6) NOT NULL,
		updated_at DATETIME(6) NOT NULL,
		UNIQUE KEY uq_users_telegram_id (telegram_id),
		KEY idx_users_last_active (last_active_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS user_cart_items (
		user_id BIGINT NOT NULL,
		position INT NOT NULL,
		product_id BIGINT NOT NULL,
		quantity INT NOT NULL,
		selected_variant VARCHAR(255) NOT NULL DEFAULT '',
		PRIMARY KEY (user_id, position),
		CONSTRAINT fk_cart_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS user_favorites (
		user_id BIGINT NOT NULL,
		product_id BIGINT NOT NULL,
		created_at DATETIME(6) NOT NULL,
		PRIMARY KEY (user_id, product_id),
		CONSTRAINT fk_favorites_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS categories (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		slug VARCHAR(255) NOT NULL,
		description TEXT NOT NULL,
		image VARCHAR(1024) NOT NULL DEFAULT '',
		parent_id BIGINT NULL,
		is_active TINYINT(1) NOT NULL DEFAULT 1,
		sort_order INT NOT NULL DEFAULT 0,
		product_count INT NOT NULL DEFAULT 0,
		created_at DATETIME(6) NOT NULL,
		updated_at DATETIME(6) NOT NULL,
		UNIQUE KEY uq_categories_slug (slug),
		KEY idx_categories_parent (parent_id),
		CONSTRAINT fk_categories_parent FOREIGN KEY (parent_id) REFERENCES categories(id) ON DELETE SET NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS products (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		slug VARCHAR(255) NOT NULL,
		description TEXT NOT NULL,
		short_description VARCHAR(512) NOT NULL DEFAULT '',
		price DECIMAL(12,2) NOT NULL,
		compare_price DECIMAL(12,2) NULL,
		discount_percentage INT NOT NULL DEFAULT 0,
		currency VARCHAR(8) NOT NULL,
		category_id BIGINT NOT NULL,
		thumbnail VARCHAR(1024) NOT NULL DEFAULT '',
		images JSON NULL,
		tags JSON NULL,
		stock INT NOT NULL DEFAULT 0,
		track_stock TINYINT(1) NOT NULL DEFAULT 1,
		is_active TINYINT(1) NOT NULL DEFAULT 1,
		is_featured TINYINT(1) NOT NULL DEFAULT 0,
		sort_order INT NOT NULL DEFAULT 0,
		view_count BIGINT NOT NULL DEFAULT 0,
		order_count BIGINT NOT NULL DEFAULT 0,
		rating DOUBLE NOT NULL DEFAULT 0,
		review_count INT NOT NULL DEFAULT 0,
		created_at DATETIME(6) NOT NULL,
		updated_at DATETIME(6) NOT NULL,
		UNIQUE KEY uq_products_slug (slug),
		KEY idx_products_category (category_id),
		KEY idx_products_active_featured (is_active, is_featured),
		KEY idx_products_price (price),
		CONSTRAINT fk_products_category FOREIGN KEY (category_id) REFERENCES categories(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS product_reviews (
		product_id BIGINT NOT NULL,
		user_id BIGINT NOT NULL,
		rating INT NOT NULL,
		comment TEXT NOT NULL,
		created_at DATETIME(6) NOT NULL,
		PRIMARY KEY (product_id, user_id),
		CONSTRAINT fk_reviews_product FOREIGN KEY (product_id) REFERENCES products(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS orders (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		order_number VARCHAR(32) NOT NULL,
		user_id BIGINT NOT NULL,
		user_telegram_id BIGINT NOT NULL,
		subtotal DECIMAL(12,2) NOT NULL,
		shipping_cost DECIMAL(12,2) NOT NULL DEFAULT 0,
		tax_amount DECIMAL(12,2) NOT NULL DEFAULT 0,
		discount_amount DECIMAL(12,2) NOT NULL DEFAULT 0,
		total DECIMAL(12,2) NOT NULL,
		currency VARCHAR(8) NOT NULL,
		status VARCHAR(16) NOT NULL,
		payment_status VARCHAR(16) NOT NULL,
		payment_method VARCHAR(64) NOT NULL DEFAULT '',
		payment_id VARCHAR(255) NOT NULL DEFAULT '',
		shipping_address JSON NOT NULL,
		billing_address JSON NULL,
		notes TEXT NOT NULL,
		tracking_number VARCHAR(255) NOT NULL DEFAULT '',
		shipping_carrier VARCHAR(255) NOT NULL DEFAULT '',
		delivered_at DATETIME(6) NULL,
		cancelled_at DATETIME(6) NULL,
		cancel_reason TEXT NOT NULL,
		created_at DATETIME(6) NOT NULL,
		updated_at DATETIME(6) NOT NULL,
		UNIQUE KEY uq_orders_number (order_number),
		KEY idx_orders_user (user_id, created_at),
		KEY idx_orders_status (status),
		CONSTRAINT fk_orders_user FOREIGN KEY (user_id) REFERENCES users(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS order_items (
		order_id BIGINT NOT NULL,
		position INT NOT NULL,
		product_id BIGINT NOT NULL,
		name VARCHAR(255) NOT NULL,
		price DECIMAL(12,2) NOT NULL,
		quantity INT NOT NULL,
		selected_variant VARCHAR(255) NOT NULL DEFAULT '',
		thumbnail VARCHAR(1024) NOT NULL DEFAULT '',
		PRIMARY KEY (order_id, position),
		CONSTRAINT fk_items_order FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS order_status_history (
		order_id BIGINT NOT NULL,
		seq INT NOT NULL,
		status VARCHAR(16) NOT NULL,
		note TEXT NOT NULL,
		created_at DATETIME(6) NOT NULL,
		PRIMARY KEY (order_id, seq),
		CONSTRAINT fk_history_order FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS admins (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		email VARCHAR(255) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		first_name VARCHAR(255) NOT NULL DEFAULT '',
		last_name VARCHAR(255) NOT NULL DEFAULT '',
		role VARCHAR(32) NOT NULL DEFAULT 'admin',
		is_active TINYINT(1) NOT NULL DEFAULT 1,
		last_login_at DATETIME(6) NULL,
		created_at DATETIME(6) NOT NULL,
		UNIQUE KEY uq_admins_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// sqliteSchema mirrors mysqlSchema. Money columns are TEXT so decimals
// round-trip exactly.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		telegram_id INTEGER NOT NULL UNIQUE,
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT '',
		username TEXT NOT NULL DEFAULT '',
		language_code TEXT NOT NULL DEFAULT '',
		photo_url TEXT NOT NULL DEFAULT '',
		is_active BOOLEAN NOT NULL DEFAULT 1,
		is_premium BOOLEAN NOT NULL DEFAULT 0,
		preferences TEXT NULL,
		cart_updated_at DATETIME NULL,
		last_active_at DATETIME NOT NULL,
		total_orders INTEGER NOT NULL DEFAULT 0,
		total_spent TEXT NOT NULL DEFAULT '0',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS user_cart_items (
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		product_id INTEGER NOT NULL,
		quantity INTEGER NOT NULL,
		selected_variant TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (user_id, position)
	)`,
	`CREATE TABLE IF NOT EXISTS user_favorites (
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		product_id INTEGER NOT NULL,
		created_at DATETIME NOT NULL,
		PRIMARY KEY (user_id, product_id)
	)`,
	`CREATE TABLE IF NOT EXISTS categories (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		slug TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT '',
		image TEXT NOT NULL DEFAULT '',
		parent_id INTEGER NULL REFERENCES categories(id) ON DELETE SET NULL,
		is_active BOOLEAN NOT NULL DEFAULT 1,
		sort_order INTEGER NOT NULL DEFAULT 0,
		product_count INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		slug TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT '',
		short_description TEXT NOT NULL DEFAULT '',
		price TEXT NOT NULL,
		compare_price TEXT NULL,
		discount_percentage INTEGER NOT NULL DEFAULT 0,
		currency TEXT NOT NULL,
		category_id INTEGER NOT NULL REFERENCES categories(id),
		thumbnail TEXT NOT NULL DEFAULT '',
		images TEXT NULL,
		tags TEXT NULL,
		stock INTEGER NOT NULL DEFAULT 0,
		track_stock BOOLEAN NOT NULL DEFAULT 1,
		is_active BOOLEAN NOT NULL DEFAULT 1,
		is_featured BOOLEAN NOT NULL DEFAULT 0,
		sort_order INTEGER NOT NULL DEFAULT 0,
		view_count INTEGER NOT NULL DEFAULT 0,
		order_count INTEGER NOT NULL DEFAULT 0,
		rating REAL NOT NULL DEFAULT 0,
		review_count INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_products_category ON products(category_id)`,
	`CREATE TABLE IF NOT EXISTS product_reviews (
		product_id INTEGER NOT NULL REFERENCES products(id) ON DELETE CASCADE,
		user_id INTEGER NOT NULL,
		rating INTEGER NOT NULL,
		comment TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		PRIMARY KEY (product_id, user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		order_number TEXT NOT NULL UNIQUE,
		user_id INTEGER NOT NULL REFERENCES users(id),
		user_telegram_id INTEGER NOT NULL,
		subtotal TEXT NOT NULL,
		shipping_cost TEXT NOT NULL DEFAULT '0',
		tax_amount TEXT NOT NULL DEFAULT '0',
		discount_amount TEXT NOT NULL DEFAULT '0',
		total TEXT NOT NULL,
		currency TEXT NOT NULL,
		status TEXT NOT NULL,
		payment_status TEXT NOT NULL,
		payment_method TEXT NOT NULL DEFAULT '',
		payment_id TEXT NOT NULL DEFAULT '',
		shipping_address TEXT NOT NULL,
		billing_address TEXT NULL,
		notes TEXT NOT NULL DEFAULT '',
		tracking_number TEXT NOT NULL DEFAULT '',
		shipping_carrier TEXT NOT NULL DEFAULT '',
		delivered_at DATETIME NULL,
		cancelled_at DATETIME NULL,
		cancel_reason TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_user ON orders(user_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		order_id INTEGER NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		product_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		price TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		selected_variant TEXT NOT NULL DEFAULT '',
		thumbnail TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (order_id, position)
	)`,
	`CREATE TABLE IF NOT EXISTS order_status_history (
		order_id INTEGER NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		seq INTEGER NOT NULL,
		status TEXT NOT NULL,
		note TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		PRIMARY KEY (order_id, seq)
	)`,
	`CREATE TABLE IF NOT EXISTS admins (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL DEFAULT 'admin',
		is_active BOOLEAN NOT NULL DEFAULT 1,
		last_login_at DATETIME NULL,
		created_at DATETIME NOT NULL
	)`,
}
