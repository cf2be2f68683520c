package core

import (
	"sync"
	"time"

	"moba/server/sync-service/pkg/config"
)

// Manager tracks the live rooms of this process and reaps idle ones.
type Manager struct {
	mu       sync.RWMutex
	rooms    map[string]*Room
	cfg      config.GameConfig
	reporter ViolationReporter
}

func NewManager(cfg config.GameConfig, reporter ViolationReporter) *Manager {
	m := &Manager{
		rooms:    make(map[string]*Room),
		cfg:      cfg,
		reporter: reporter,
	}
	go m.cleanupLoop()
	return m
}

func (m *Manager) cleanupLoop() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		m.CleanupEmptyRooms()
	}
}

// CleanupEmptyRooms stops and removes rooms with no entities that have been
// idle for over a minute.
func (m *Manager) CleanupEmptyRooms() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().Unix()
	for id, room := range m.rooms {
		if room.EntityCount() == 0 && now-room.LastActiveTime > 60 {
			room.Stop()
			delete(m.rooms, id)
		}
	}
}

func (m *Manager) Get(roomID string) *Room {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rooms[roomID]
}

// GetOrCreate returns the room, starting its scheduler on first use.
func (m *Manager) GetOrCreate(roomID string) *Room {
	m.mu.Lock()
	defer m.mu.Unlock()
	if room, ok := m.rooms[roomID]; ok {
		return room
	}
	room := NewRoom(roomID, m.cfg, m.reporter)
	m.rooms[roomID] = room
	go room.Run()
	return room
}

func (m *Manager) Remove(roomID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if room, ok := m.rooms[roomID]; ok {
		room.Stop()
		delete(m.rooms, roomID)
	}
}
