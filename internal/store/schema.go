// internal/store/schema.go
//
// DDL for the control-plane tables.  Statements are idempotent so
// `deplctl migrate` and `database.auto_migrate` may run them on every boot.
//
// Keys, subdomains and slugs compare byte-for-byte (utf8mb4_bin).
// deeplinks.app_params is LONGTEXT: MySQL JSON columns re-sort object
// keys, and the redirect query string follows the caller's key order.
package store

// Schema lists the CREATE statements in dependency order.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS workspaces (
		id                           CHAR(36)     NOT NULL,
		name                         VARCHAR(128) NOT NULL,
		description                  VARCHAR(512) NOT NULL DEFAULT '',
		sub_domain                   VARCHAR(30)  COLLATE utf8mb4_bin NOT NULL,
		api_key                      CHAR(36)     COLLATE utf8mb4_bin NOT NULL,
		client_key                   CHAR(36)     COLLATE utf8mb4_bin NOT NULL,
		current_monthly_create_count INT UNSIGNED NOT NULL DEFAULT 0,
		current_monthly_click_count  INT UNSIGNED NOT NULL DEFAULT 0,
		next_quota_update_at         DATETIME     NULL,
		created_at                   DATETIME(3)  NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
		PRIMARY KEY (id),
		UNIQUE KEY uq_workspaces_sub_domain (sub_domain),
		UNIQUE KEY uq_workspaces_api_key (api_key),
		UNIQUE KEY uq_workspaces_client_key (client_key)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS apps (
		id            CHAR(36)     NOT NULL,
		workspace_id  CHAR(36)     NOT NULL,
		platform      VARCHAR(16)  NOT NULL,
		name          VARCHAR(128) NOT NULL DEFAULT '',
		platform_data JSON         NOT NULL,
		created_at    DATETIME(3)  NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
		updated_at    DATETIME(3)  NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
		PRIMARY KEY (id),
		UNIQUE KEY uq_apps_workspace_platform (workspace_id, platform),
		CONSTRAINT fk_apps_workspace FOREIGN KEY (workspace_id)
			REFERENCES workspaces (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS deeplinks (
		workspace_id       CHAR(36)        NOT NULL,
		slug               VARCHAR(64)     NOT NULL,
		short_code         VARCHAR(64)     NOT NULL,
		is_random_slug     TINYINT(1)      NOT NULL DEFAULT 0,
		app_params         LONGTEXT        NOT NULL,
		android_parameters JSON            NOT NULL,
		ios_parameters     JSON            NOT NULL,
		social_meta        JSON            NOT NULL,
		source             VARCHAR(8)      NOT NULL DEFAULT 'API',
		click_count        BIGINT UNSIGNED NOT NULL DEFAULT 0,
		created_at         DATETIME(3)     NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
		updated_at         DATETIME(3)     NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
		PRIMARY KEY (workspace_id, slug),
		KEY idx_deeplinks_created (workspace_id, created_at),
		CONSTRAINT fk_deeplinks_workspace FOREIGN KEY (workspace_id)
			REFERENCES workspaces (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_bin`,
}
