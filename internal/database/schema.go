package database

// Timestamps are stored as fixed-width UTC text (see FormatTime) in both dialects so that
// ORDER BY on them is chronological. JSON-valued columns hold encoded arrays/objects.

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		timezone TEXT NOT NULL DEFAULT 'UTC',
		birth_date TEXT,
		birth_time TEXT,
		birth_location TEXT,
		role TEXT NOT NULL DEFAULT 'user',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS entities (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		entity_type TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT,
		scheduled_at TEXT,
		due_at TEXT,
		period_start TEXT,
		period_end TEXT,
		context_tags TEXT NOT NULL DEFAULT '[]',
		location TEXT,
		estimated_duration INTEGER,
		status TEXT NOT NULL DEFAULT 'pending',
		completed_at TEXT,
		blocked_by TEXT NOT NULL DEFAULT '[]',
		priority INTEGER NOT NULL DEFAULT 0,
		extra_data TEXT NOT NULL DEFAULT '{}',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_entities_user ON entities(user_id, entity_type, status)`,
	`CREATE TABLE IF NOT EXISTS entity_relations (
		id TEXT PRIMARY KEY,
		parent_id TEXT NOT NULL REFERENCES entities(id) ON DELETE CASCADE,
		child_id TEXT NOT NULL REFERENCES entities(id) ON DELETE CASCADE,
		relation_type TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_relations_parent ON entity_relations(parent_id)`,
	`CREATE INDEX IF NOT EXISTS idx_relations_child ON entity_relations(child_id)`,
	`CREATE TABLE IF NOT EXISTS context_windows (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		window_type TEXT NOT NULL,
		start_time TEXT,
		end_time TEXT,
		days_of_week TEXT NOT NULL DEFAULT '[]',
		energy_level TEXT,
		preferred_activities TEXT NOT NULL DEFAULT '[]',
		extra_data TEXT NOT NULL DEFAULT '{}',
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_context_windows_user ON context_windows(user_id)`,
	`CREATE TABLE IF NOT EXISTS user_patterns (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		pattern_type TEXT NOT NULL,
		pattern_data TEXT NOT NULL DEFAULT '{}',
		confidence_score REAL NOT NULL DEFAULT 0.5,
		created_at TEXT NOT NULL,
		last_updated TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_user_patterns_user ON user_patterns(user_id)`,
	`CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		extra_data TEXT NOT NULL DEFAULT '{}',
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_user_created ON messages(user_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS lists (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		is_default INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_lists_user ON lists(user_id)`,
	`CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		list_id TEXT NOT NULL REFERENCES lists(id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		description TEXT,
		deadline TEXT,
		priority INTEGER NOT NULL DEFAULT 0,
		completed INTEGER NOT NULL DEFAULT 0,
		completed_at TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_user_list ON tasks(user_id, list_id)`,
}

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id VARCHAR(64) PRIMARY KEY,
		email VARCHAR(255) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		name VARCHAR(255) NOT NULL DEFAULT '',
		timezone VARCHAR(64) NOT NULL DEFAULT 'UTC',
		birth_date VARCHAR(10),
		birth_time VARCHAR(8),
		birth_location VARCHAR(255),
		role VARCHAR(32) NOT NULL DEFAULT 'user',
		created_at VARCHAR(32) NOT NULL,
		updated_at VARCHAR(32) NOT NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS entities (
		id VARCHAR(26) PRIMARY KEY,
		user_id VARCHAR(64) NOT NULL,
		entity_type VARCHAR(64) NOT NULL,
		title VARCHAR(500) NOT NULL,
		description TEXT,
		scheduled_at VARCHAR(32),
		due_at VARCHAR(32),
		period_start VARCHAR(10),
		period_end VARCHAR(10),
		context_tags JSON NOT NULL,
		location VARCHAR(255),
		estimated_duration BIGINT,
		status VARCHAR(32) NOT NULL DEFAULT 'pending',
		completed_at VARCHAR(32),
		blocked_by JSON NOT NULL,
		priority INT NOT NULL DEFAULT 0,
		extra_data JSON NOT NULL,
		created_at VARCHAR(32) NOT NULL,
		updated_at VARCHAR(32) NOT NULL,
		INDEX idx_entities_user (user_id, entity_type, status)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS entity_relations (
		id VARCHAR(26) PRIMARY KEY,
		parent_id VARCHAR(26) NOT NULL,
		child_id VARCHAR(26) NOT NULL,
		relation_type VARCHAR(64) NOT NULL,
		created_at VARCHAR(32) NOT NULL,
		INDEX idx_relations_parent (parent_id),
		INDEX idx_relations_child (child_id),
		FOREIGN KEY (parent_id) REFERENCES entities(id) ON DELETE CASCADE,
		FOREIGN KEY (child_id) REFERENCES entities(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS context_windows (
		id VARCHAR(26) PRIMARY KEY,
		user_id VARCHAR(64) NOT NULL,
		window_type VARCHAR(64) NOT NULL,
		start_time VARCHAR(8),
		end_time VARCHAR(8),
		days_of_week JSON NOT NULL,
		energy_level VARCHAR(32),
		preferred_activities JSON NOT NULL,
		extra_data JSON NOT NULL,
		created_at VARCHAR(32) NOT NULL,
		INDEX idx_context_windows_user (user_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS user_patterns (
		id VARCHAR(26) PRIMARY KEY,
		user_id VARCHAR(64) NOT NULL,
		pattern_type VARCHAR(64) NOT NULL,
		pattern_data JSON NOT NULL,
		confidence_score DOUBLE NOT NULL DEFAULT 0.5,
		created_at VARCHAR(32) NOT NULL,
		last_updated VARCHAR(32) NOT NULL,
		INDEX idx_user_patterns_user (user_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS messages (
		id VARCHAR(26) PRIMARY KEY,
		user_id VARCHAR(64) NOT NULL,
		role VARCHAR(16) NOT NULL,
		content MEDIUMTEXT NOT NULL,
		extra_data JSON NOT NULL,
		created_at VARCHAR(32) NOT NULL,
		INDEX idx_messages_user_created (user_id, created_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS lists (
		id VARCHAR(26) PRIMARY KEY,
		user_id VARCHAR(64) NOT NULL,
		name VARCHAR(255) NOT NULL,
		is_default BOOLEAN NOT NULL DEFAULT FALSE,
		created_at VARCHAR(32) NOT NULL,
		INDEX idx_lists_user (user_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS tasks (
		id VARCHAR(26) PRIMARY KEY,
		user_id VARCHAR(64) NOT NULL,
		list_id VARCHAR(26) NOT NULL,
		title VARCHAR(500) NOT NULL,
		description TEXT,
		deadline VARCHAR(32),
		priority INT NOT NULL DEFAULT 0,
		completed BOOLEAN NOT NULL DEFAULT FALSE,
		completed_at VARCHAR(32),
		created_at VARCHAR(32) NOT NULL,
		updated_at VARCHAR(32) NOT NULL,
		INDEX idx_tasks_user_list (user_id, list_id),
		FOREIGN KEY (list_id) REFERENCES lists(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}
