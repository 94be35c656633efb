package hexcoord

import "testing"

func straightPathTiles() TileMap {
	return TileMap{
		New(0, 0): Spawnpoint,
		New(1, 0): Path,
		New(2, 0): Path,
		New(3, 0): Path,
		New(4, 0): Castle,
	}
}

func TestFindPathFromSpawnToCastle_Orientation(t *testing.T) {
	path, err := FindPathFromSpawnToCastle(straightPathTiles())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(path) == 0 {
		t.Fatalf("expected a non-empty path")
	}

	if path[0] != New(0, 0) {
		t.Errorf("expected path to start at the spawnpoint, got %v", path[0])
	}
	if path[len(path)-1] != New(4, 0) {
		t.Errorf("expected path to end at the castle, got %v", path[len(path)-1])
	}
}

func TestFindPathFromSpawnToCastle_AdjacencyAndMinimality(t *testing.T) {
	path, err := FindPathFromSpawnToCastle(straightPathTiles())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := 1; i < len(path); i++ {
		if d := path[i-1].Distance(path[i]); d != 1 {
			t.Errorf("expected adjacent hexes at index %d/%d to be distance 1 apart, got %d (%v -> %v)", i-1, i, d, path[i-1], path[i])
		}
	}

	const wantLen = 5 // spawn, 3 path tiles, castle
	if len(path) != wantLen {
		t.Errorf("expected minimal path length %d, got %d (%v)", wantLen, len(path), path)
	}
}

func TestFindPathFromSpawnToCastle_NoCastle(t *testing.T) {
	tiles := TileMap{New(0, 0): Spawnpoint, New(1, 0): Path}
	if _, err := FindPathFromSpawnToCastle(tiles); err != ErrNoCastle {
		t.Errorf("expected ErrNoCastle, got %v", err)
	}
}

func TestFindPathFromSpawnToCastle_NoSpawnpoint(t *testing.T) {
	tiles := TileMap{New(0, 0): Path, New(1, 0): Castle}
	if _, err := FindPathFromSpawnToCastle(tiles); err != ErrNoSpawnpoint {
		t.Errorf("expected ErrNoSpawnpoint, got %v", err)
	}
}

func TestFindPathFromSpawnToCastle_Disconnected(t *testing.T) {
	tiles := TileMap{
		New(0, 0): Spawnpoint,
		New(5, 5): Castle,
	}
	if _, err := FindPathFromSpawnToCastle(tiles); err != ErrNoPath {
		t.Errorf("expected ErrNoPath, got %v", err)
	}
}

func TestFindPathFromSpawnToCastle_ClosestSpawnpointWins(t *testing.T) {
	tiles := TileMap{
		New(0, 0): Spawnpoint,
		New(1, 0): Path,
		New(2, 0): Castle,

		New(2, -5): Spawnpoint,
		New(2, -4): Path,
		New(2, -3): Path,
		New(2, -2): Path,
		New(2, -1): Path,
	}

	path, err := FindPathFromSpawnToCastle(tiles)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if path[0] != New(0, 0) {
		t.Errorf("expected the closer spawnpoint %v to win, got path starting at %v", New(0, 0), path[0])
	}
}
