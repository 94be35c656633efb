package hexcoord

import "fmt"

// TileType :
// Describes the kind of terrain found at a tile of a battle map. Only
// `Spawnpoint`, `Path` and `Castle` participate in pathfinding; any other
// tile type (typically buildable ground for towers) blocks traversal.
type TileType string

// Defines the tile types participating in the 6-connected traversal used
// to build a battle's critter path.
const (
	Spawnpoint TileType = "spawnpoint"
	Path       TileType = "path"
	Castle     TileType = "castle"
	Buildable  TileType = "buildable"
	Blocked    TileType = "blocked"
)

// TileMap :
// A sparse hex map, keyed by coordinate, describing the terrain of one
// defender's territory. Only the tiles relevant to this package's BFS
// need to be populated for `FindPathFromSpawnToCastle` to operate; other
// terrain (buildable ground, decoration) can be omitted.
type TileMap map[Hex]TileType

// ErrNoCastle :
// Returned when a tile map defines no `Castle` tile: a battle path has
// nowhere to lead to.
var ErrNoCastle = fmt.Errorf("tile map defines no castle")

// ErrNoSpawnpoint :
// Returned when a tile map defines no `Spawnpoint` tile.
var ErrNoSpawnpoint = fmt.Errorf("tile map defines no spawnpoint")

// ErrNoPath :
// Returned when spawnpoints and a castle both exist but no 6-connected
// walkable route joins any of them to the castle.
var ErrNoPath = fmt.Errorf("no path between any spawnpoint and the castle")

func traversable(t TileType) bool {
	return t == Spawnpoint || t == Path || t == Castle
}

// FindPathFromSpawnToCastle :
// Runs a breadth-first search over `tiles`, traversing only
// `Spawnpoint`/`Path`/`Castle` tiles through 6-connectivity, and returns
// the shortest sequence of hexes from whichever spawnpoint is closest to
// the single castle tile in the map.
//
// Determinism is guaranteed by two properties: the fixed neighbour
// iteration order of `Hex.Neighbours`, and iterating candidate
// spawnpoints in the deterministic order they are discovered by a single
// forward BFS seeded from the castle (so ties between equally-short
// paths from different spawnpoints always resolve to the same one for a
// given map).
//
// Failure modes: no castle, no spawnpoint, or a disconnected map all
// report a dedicated error rather than an empty-but-successful path.
func FindPathFromSpawnToCastle(tiles TileMap) ([]Hex, error) {
	var castle Hex
	foundCastle := false
	foundSpawn := false

	for h, t := range tiles {
		if t == Castle {
			if foundCastle {
				continue
			}
			castle = h
			foundCastle = true
		}
		if t == Spawnpoint {
			foundSpawn = true
		}
	}

	if !foundCastle {
		return nil, ErrNoCastle
	}
	if !foundSpawn {
		return nil, ErrNoSpawnpoint
	}

	// BFS outward from the castle over traversable tiles; the first
	// spawnpoint reached gives the shortest path, and recording the
	// parent of each visited hex lets us reconstruct it.
	parent := map[Hex]Hex{castle: castle}
	visited := map[Hex]bool{castle: true}
	queue := []Hex{castle}

	var spawn Hex
	found := false

	for len(queue) > 0 && !found {
		cur := queue[0]
		queue = queue[1:]

		for _, n := range cur.Neighbours() {
			t, ok := tiles[n]
			if !ok || !traversable(t) || visited[n] {
				continue
			}
			visited[n] = true
			parent[n] = cur
			queue = append(queue, n)

			if t == Spawnpoint {
				spawn = n
				found = true
				break
			}
		}
	}

	if !found {
		return nil, ErrNoPath
	}

	// Reconstruct the path from spawn to castle by walking parents
	// backwards from the spawnpoint; since the BFS parent chain already
	// runs spawn -> ... -> castle in this direction, no reversal is
	// needed.
	path := []Hex{spawn}
	cur := spawn
	for cur != castle {
		cur = parent[cur]
		path = append(path, cur)
	}

	return path, nil
}
