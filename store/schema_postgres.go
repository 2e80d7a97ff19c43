package store

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS orders (
    id                 BIGSERIAL PRIMARY KEY,
    client_id          TEXT NOT NULL DEFAULT '',
    recipient_name     TEXT NOT NULL DEFAULT '',
    recipient_phone    TEXT NOT NULL DEFAULT '',
    pickup_address     TEXT NOT NULL DEFAULT '',
    delivery_address   TEXT NOT NULL DEFAULT '',
    priority           TEXT NOT NULL DEFAULT 'medium',
    status             TEXT NOT NULL DEFAULT 'pending',
    cms_reference      TEXT NOT NULL DEFAULT '',
    contract_id        TEXT NOT NULL DEFAULT '',
    wms_reference      TEXT NOT NULL DEFAULT '',
    tracking_number    TEXT NOT NULL DEFAULT '',
    ros_reference      TEXT NOT NULL DEFAULT '',
    estimated_delivery TEXT NOT NULL DEFAULT '',
    total_amount       DOUBLE PRECISION NOT NULL DEFAULT 0,
    payment_status     TEXT NOT NULL DEFAULT 'unpaid',
    created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status);
CREATE INDEX IF NOT EXISTS idx_orders_client ON orders(client_id);
CREATE INDEX IF NOT EXISTS idx_orders_tracking ON orders(tracking_number);

CREATE TABLE IF NOT EXISTS order_items (
    id            BIGSERIAL PRIMARY KEY,
    order_id      BIGINT NOT NULL REFERENCES orders(id),
    description   TEXT NOT NULL DEFAULT '',
    quantity      INTEGER NOT NULL DEFAULT 1,
    weight        DOUBLE PRECISION NOT NULL DEFAULT 0,
    value         DOUBLE PRECISION NOT NULL DEFAULT 0,
    instructions  TEXT NOT NULL DEFAULT '',
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_id);

CREATE TABLE IF NOT EXISTS order_status_history (
    id          BIGSERIAL PRIMARY KEY,
    order_id    BIGINT NOT NULL REFERENCES orders(id),
    status      TEXT NOT NULL,
    note        TEXT NOT NULL DEFAULT '',
    actor_id    TEXT NOT NULL DEFAULT '',
    actor_kind  TEXT NOT NULL DEFAULT 'system',
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_status_history_order ON order_status_history(order_id);

CREATE TABLE IF NOT EXISTS retry_jobs (
    id           BIGSERIAL PRIMARY KEY,
    order_id     BIGINT NOT NULL REFERENCES orders(id),
    attempt      INTEGER NOT NULL DEFAULT 1,
    run_at       TIMESTAMPTZ NOT NULL,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    completed_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_retry_jobs_due ON retry_jobs(completed_at, run_at);
CREATE INDEX IF NOT EXISTS idx_retry_jobs_order ON retry_jobs(order_id);
`
