package storage

import (
	_ "embed"
)

const (
	insertSessionSQL = `
INSERT INTO sessions (id,
                      start_time,
                      source,
                      config)
VALUES (?, ?, ?, ?)`

	selectSessionSQL = `
SELECT 
    id, 
    start_time, 
    source, 
    config 
FROM sessions 
WHERE 
    id = ?`

	selectSessionsSQL = `
SELECT 
    id, 
    start_time, 
    source, 
    config 
FROM sessions
ORDER BY start_time, rowid`

	insertPacketSQL = `
INSERT INTO packets (session_id,
                     received_at,
                     sequence,
                     rssi,
                     checksum,
                     type,
                     timestamp,
                     temperature,
                     pressure,
                     altitude,
                     latitude,
                     longitude,
                     sats,
                     voltage,
                     current,
                     payload)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	selectPacketsSQL = `
SELECT 
    id,
    session_id,
    received_at,
    sequence,
    rssi,
    checksum,
    type,
    timestamp,
    temperature,
    pressure,
    altitude,
    latitude,
    longitude,
    sats,
    voltage,
    current,
    payload
FROM packets
WHERE 
    session_id = ?
    AND id > ?
ORDER BY id
LIMIT ?`

	initIndexesSQL = `
CREATE INDEX IF NOT EXISTS idx_packets_session ON packets (session_id, id);`
)

//go:embed schema.sql
var initSchemaSQL string
