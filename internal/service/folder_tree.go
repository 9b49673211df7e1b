package service

import "storyloom/internal/models"

// FolderNode is a folder with its child folders, for rendering a tree.
type FolderNode struct {
	models.Folder
	Children []*FolderNode `json:"children"`
}

// BuildFolderTree groups a flat folder list into trees. Roots and every
// level of children keep the input order. A folder whose parent is not in
// the list is returned as a root.
func BuildFolderTree(flat []models.Folder) []*FolderNode {
	nodes := make(map[uint]*FolderNode, len(flat))
	ordered := make([]*FolderNode, 0, len(flat))
	for _, f := range flat {
		node := &FolderNode{Folder: f, Children: []*FolderNode{}}
		nodes[f.ID] = node
		ordered = append(ordered, node)
	}

	roots := make([]*FolderNode, 0)
	for _, node := range ordered {
		if node.ParentID != nil {
			if parent, ok := nodes[*node.ParentID]; ok && parent != node {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}
	return roots
}

// folderArena indexes one project's folders of one kind by id.
type folderArena map[uint]models.Folder

func newFolderArena(folders []models.Folder) folderArena {
	arena := make(folderArena, len(folders))
	for _, f := range folders {
		arena[f.ID] = f
	}
	return arena
}

// createsCycle reports whether giving folderID the parent parentID would make
// folderID its own ancestor. A chain longer than the arena can only be a
// corrupted loop, so it is treated as a cycle.
func (a folderArena) createsCycle(folderID, parentID uint) bool {
	current := parentID
	for steps := 0; steps <= len(a); steps++ {
		if current == folderID {
			return true
		}
		f, ok := a[current]
		if !ok || f.ParentID == nil {
			return false
		}
		current = *f.ParentID
	}
	return true
}
